// Package outbox 把 outbox 仓储与 Pub/Sub 发布器组装为可运行的发布任务。
package outbox

import (
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

// ProvideRunner 将共享仓储与 Pub/Sub 发布器包装为 Outbox Runner。未配置 topic 时返回 nil。
func ProvideRunner(
	repo *repositories.OutboxRepository,
	publisher gcpubsub.Publisher,
	pubCfg gcpubsub.Config,
	cfg outboxcfg.Config,
	logger log.Logger,
) *outboxpublisher.Runner {
	if repo == nil || logger == nil {
		return nil
	}
	helper := log.NewHelper(logger)
	if pubCfg.TopicID == "" {
		helper.Warn("skip initializing outbox runner: pubsub topic not configured")
		return nil
	}

	publisherCfg := cfg.Normalize().Publisher

	meterProvider := otel.GetMeterProvider()
	if !enabled(publisherCfg.MetricsEnabled) {
		meterProvider = noopmetric.NewMeterProvider()
	}
	if enabled(publisherCfg.LoggingEnabled) {
		helper.Infof("init workflow outbox runner: topic=%s batch_size=%d workers=%d tick_interval=%s",
			pubCfg.TopicID, publisherCfg.BatchSize, publisherCfg.Workers, publisherCfg.TickInterval)
	}

	runner, err := outboxpublisher.NewRunner(outboxpublisher.RunnerParams{
		Store:     repo.Shared(),
		Publisher: publisher,
		Config:    publisherCfg,
		Logger:    logger,
		Meter:     meterProvider.Meter("yt-clone.outbox"),
	})
	if err != nil {
		helper.Errorw("msg", "init outbox runner failed", "error", err)
		return nil
	}
	return runner
}

// enabled 未设置时视为开启。
func enabled(flag *bool) bool {
	return flag == nil || *flag
}
