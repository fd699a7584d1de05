package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sanidhyy/yt-clone/internal/repositories"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 工作流触发的结果标签。
const (
	triggerOutcomeEnqueued = "enqueued"
	triggerOutcomeNotOwned = "not_owned"
	triggerOutcomeFailed   = "failed"
)

// triggerInstruments 在进程内只创建一次，MeterProvider 未配置时 otel 返回 noop 实现。
type triggerInstruments struct {
	triggers metric.Int64Counter
	latency  metric.Float64Histogram
}

var (
	triggerInstrumentsOnce sync.Once
	sharedTriggerMetrics   *triggerInstruments
)

func loadTriggerInstruments() *triggerInstruments {
	triggerInstrumentsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("yt-clone.services.workflow")
		triggers, err := meter.Int64Counter("yt_clone_workflow_triggers_total",
			metric.WithDescription("Workflow trigger requests by workflow and outcome"))
		if err != nil {
			return
		}
		latency, err := meter.Float64Histogram("yt_clone_workflow_trigger_duration_ms",
			metric.WithDescription("Time spent checking ownership and writing the outbox row"),
			metric.WithUnit("ms"))
		if err != nil {
			return
		}
		sharedTriggerMetrics = &triggerInstruments{triggers: triggers, latency: latency}
	})
	return sharedTriggerMetrics
}

// triggerRecorder 记录一次工作流触发的结果与耗时。
type triggerRecorder struct {
	inst *triggerInstruments
}

func newTriggerRecorder() *triggerRecorder {
	return &triggerRecorder{inst: loadTriggerInstruments()}
}

func (r *triggerRecorder) observe(ctx context.Context, workflow string, started time.Time, err error) {
	if r == nil || r.inst == nil {
		return
	}
	outcome := triggerOutcomeEnqueued
	switch {
	case errors.Is(err, repositories.ErrVideoNotFound):
		outcome = triggerOutcomeNotOwned
	case err != nil:
		outcome = triggerOutcomeFailed
	}
	attrs := metric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("outcome", outcome),
	)
	r.inst.triggers.Add(ctx, 1, attrs)
	r.inst.latency.Record(ctx, float64(time.Since(started).Microseconds())/1000, attrs)
}
