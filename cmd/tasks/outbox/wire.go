//go:build wireinject
// +build wireinject

package main

import (
	"context"

	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	outboxtasks "github.com/sanidhyy/yt-clone/internal/tasks/outbox"

	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

// wireOutboxTask 只装配发布所需的部分：配置、日志、观测、连接池、Pub/Sub 与 outbox 仓储。
func wireOutboxTask(context.Context, configloader.Params) (*publisherApp, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		gcpubsub.ProviderSet,
		repositories.NewOutboxRepository,
		outboxtasks.ProvideRunner,
		newPublisherApp,
	))
}

// newPublisherApp 依赖 observability 组件，使其随进程初始化并在 cleanup 中关闭。
func newPublisherApp(_ *obswire.Component, logger log.Logger, outbox *repositories.OutboxRepository, runner *outboxpublisher.Runner) *publisherApp {
	return &publisherApp{runner: runner, outbox: outbox, log: log.NewHelper(logger)}
}
