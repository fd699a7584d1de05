// Package controllers 提供传输层 Handler，负责处理外部请求并调用业务层。
// 该层负责输入校验、调用方解析和错误映射。
package controllers

import "github.com/google/wire"

// ProviderSet exposes controller/handler constructors for DI.
var ProviderSet = wire.NewSet(
	NewBaseHandler,
	wire.Struct(new(Services), "*"),
	NewMetricsRegistry,
	NewRPCMetrics,
	NewRPCHandler,
	NewWebhookHandler,
	NewUploadHandler,
	NewUsersHandler,
	NewRoutes,
)
