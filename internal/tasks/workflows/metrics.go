package workflows

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

// InboxMetrics 记录工作流消费结果：完成、跳过、失败次数与端到端延迟。
type InboxMetrics struct {
	success metric.Int64Counter
	skipped metric.Int64Counter
	failure metric.Int64Counter
	lag     metric.Float64Histogram
	enabled bool
}

// NewInboxMetrics 从 provider 创建计量器，provider 为空时使用全局 MeterProvider。
func NewInboxMetrics(meterProvider metric.MeterProvider) *InboxMetrics {
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	if meterProvider == nil {
		meterProvider = noopmetric.NewMeterProvider()
	}
	meter := meterProvider.Meter("yt-clone.workflows")

	success, err := meter.Int64Counter("workflow_success_total", metric.WithDescription("Number of workflows completed"))
	if err != nil {
		return &InboxMetrics{}
	}
	skipped, err := meter.Int64Counter("workflow_skipped_total", metric.WithDescription("Number of workflows acknowledged without running"))
	if err != nil {
		return &InboxMetrics{}
	}
	failure, err := meter.Int64Counter("workflow_failure_total", metric.WithDescription("Number of workflow attempts failed"))
	if err != nil {
		return &InboxMetrics{}
	}
	lag, err := meter.Float64Histogram("workflow_event_lag_ms", metric.WithDescription("Lag between workflow request and completion"), metric.WithUnit("ms"))
	if err != nil {
		return &InboxMetrics{}
	}

	return &InboxMetrics{
		success: success,
		skipped: skipped,
		failure: failure,
		lag:     lag,
		enabled: true,
	}
}

func (m *InboxMetrics) recordSuccess(ctx context.Context, workflow string, occurredAt time.Time, now time.Time) {
	if m == nil || !m.enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("workflow", workflow))
	m.success.Add(ctx, 1, attrs)
	if !occurredAt.IsZero() && !now.IsZero() {
		lag := now.Sub(occurredAt).Milliseconds()
		if lag < 0 {
			lag = 0
		}
		m.lag.Record(ctx, float64(lag), attrs)
	}
}

func (m *InboxMetrics) recordSkipped(ctx context.Context, workflow string) {
	if m == nil || !m.enabled {
		return
	}
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("workflow", workflow)))
}

func (m *InboxMetrics) recordFailure(ctx context.Context, workflow string, _ error) {
	if m == nil || !m.enabled {
		return
	}
	m.failure.Add(ctx, 1, metric.WithAttributes(attribute.String("workflow", workflow)))
}
