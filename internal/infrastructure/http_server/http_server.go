// Package httpserver 负责装配入站 HTTP Server 及其中间件栈。
// 包括：追踪、恢复、元数据传播、自适应限流与访问日志。
package httpserver

import (
	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"

	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	"github.com/go-kratos/kratos/v2/middleware/ratelimit"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// RouteRegistrar 由控制器层实现，负责注册路由与请求级过滤器。
type RouteRegistrar interface {
	Filters() []khttp.FilterFunc
	Register(srv *khttp.Server)
}

// NewHTTPServer 构造配置完整的 Kratos HTTP Server 实例。
//
// 中间件链（按执行顺序）：
// 1. obsTrace.Server() - OpenTelemetry 追踪，自动创建 Span
// 2. recovery.Recovery() - Panic 恢复，防止服务崩溃
// 3. metadata.Server() - 元数据传播，转发配置前缀的 header
// 4. ratelimit.Server() - 基于 BBR 的自适应过载保护
// 5. logging.Server() - 结构化访问日志（含 trace_id/span_id）
//
// 过滤器在中间件之前执行，负责把身份解析结果写入请求 Context。
func NewHTTPServer(cfg configloader.ServerConfig, routes RouteRegistrar, logger log.Logger) *khttp.Server {
	mws := []middleware.Middleware{
		obsTrace.Server(),
		recovery.Recovery(),
		metadata.Server(metadata.WithPropagatedPrefix(cfg.MetadataKeys...)),
		ratelimit.Server(),
		logging.Server(logger),
	}

	opts := []khttp.ServerOption{
		khttp.Middleware(mws...),
	}
	if routes != nil {
		if filters := routes.Filters(); len(filters) > 0 {
			opts = append(opts, khttp.Filter(filters...))
		}
	}
	if cfg.Network != "" {
		opts = append(opts, khttp.Network(cfg.Network))
	}
	if cfg.Address != "" {
		opts = append(opts, khttp.Address(cfg.Address))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, khttp.Timeout(cfg.Timeout))
	}
	srv := khttp.NewServer(opts...)
	if routes != nil {
		routes.Register(srv)
	}
	return srv
}
