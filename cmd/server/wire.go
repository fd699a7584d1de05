//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

//go:generate go run github.com/google/wire/cmd/wire

package main

import (
	"context"

	"github.com/sanidhyy/yt-clone/internal/clients"
	"github.com/sanidhyy/yt-clone/internal/controllers"
	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"
	httpserver "github.com/sanidhyy/yt-clone/internal/infrastructure/http_server"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/identity"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"
	outboxtasks "github.com/sanidhyy/yt-clone/internal/tasks/outbox"

	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2"
	"github.com/google/wire"
)

// wireApp 构建整个 Kratos 应用。
//
// 依赖注入顺序:
//  1. 配置加载: configloader.ProviderSet 解析配置并派生各组件配置
//  2. 基础设施: gclog → observability → pgxpoolx → txmanager → gcpubsub
//  3. 外部客户端: clients.ProviderSet（身份校验、限流、对象存储、视频平台、大模型）
//  4. 业务层: repositories → services → controllers
//  5. 服务器: httpserver.ProviderSet 组装 HTTP Server 并注册 Routes
//  6. 应用: newApp 创建 Kratos App，同进程运行 outbox 发布器
func wireApp(context.Context, configloader.Params) (*kratos.App, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		txmanager.ProviderSet,
		gcpubsub.ProviderSet,
		clients.ProviderSet,
		wire.Bind(new(controllers.IdentityResolver), new(*identity.Verifier)),
		repositories.ProviderSet,
		services.StoreBindings,
		services.ProviderSet,
		controllers.ProviderSet,
		wire.Bind(new(httpserver.RouteRegistrar), new(*controllers.Routes)),
		httpserver.ProviderSet,
		outboxtasks.ProvideRunner,
		newApp,
	))
}

// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
// 关键 Provider
// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
//
//   - ratelimit.New(ratelimit.Config, log.Logger) (ratelimit.Limiter, func(), error)
//       按配置选择 Redis 滑动窗口或进程内令牌桶，返回 cleanup 关闭 Redis 连接。
//
//   - videoprovider.NewClient(context.Context, videoprovider.Config, log.Logger)
//                             (*videoprovider.Client, func(), error)
//       构造视频平台 API、字幕流与图片三个 Kratos HTTP 客户端。
//
//   - objectstore.New(context.Context, objectstore.Config, log.Logger) (*objectstore.Store, error)
//       基于 aws-sdk-go-v2 的 S3 兼容对象存储。
//
//   - controllers.NewRoutes(...) *controllers.Routes
//       汇总 RPC、回调、上传与 /users/current 路由，绑定为 httpserver.RouteRegistrar。
//
//   - outboxtasks.ProvideRunner(*repositories.OutboxRepository, gcpubsub.Publisher,
//                               gcpubsub.Config, outboxcfg.Config, log.Logger) *outboxpublisher.Runner
//       未配置 topic 时返回 nil，newApp 跳过发布器。
