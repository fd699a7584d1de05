package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
	"github.com/sanidhyy/yt-clone/internal/services"
	"github.com/sanidhyy/yt-clone/internal/tasks/workflows"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newMeteredHandler(t *testing.T, steps workflows.StepExecutor) (*workflows.EventHandler, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return workflows.NewEventHandler(steps, log.NewStdLogger(io.Discard), workflows.NewInboxMetrics(provider)), reader
}

// counterValue 返回指定计数器在 workflow 标签下的累计值，未出现时为 0。
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name, workflow string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("workflow")); ok && v.AsString() == workflow {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestInboxMetricsCountOutcomes(t *testing.T) {
	steps := &stubSteps{}
	handler, reader := newMeteredHandler(t, steps)
	ctx := context.Background()
	title := outboxevents.KindTitleRequested.String()

	require.NoError(t, handler.Handle(ctx, nil, newEvent(), nil))
	require.NoError(t, handler.Handle(ctx, nil, newEvent(), nil))

	steps.err = fmt.Errorf("%w: no api key", services.ErrWorkflowSkipped)
	require.NoError(t, handler.Handle(ctx, nil, newEvent(), nil))

	steps.err = errors.New("model timeout")
	require.Error(t, handler.Handle(ctx, nil, newEvent(), nil))

	require.Equal(t, int64(2), counterValue(t, reader, "workflow_success_total", title))
	require.Equal(t, int64(1), counterValue(t, reader, "workflow_skipped_total", title))
	require.Equal(t, int64(1), counterValue(t, reader, "workflow_failure_total", title))
	require.Zero(t, counterValue(t, reader, "workflow_success_total", outboxevents.KindDescriptionRequested.String()))
}

func TestInboxMetricsRecordLag(t *testing.T) {
	handler, reader := newMeteredHandler(t, &stubSteps{})
	require.NoError(t, handler.Handle(context.Background(), nil, newEvent(), nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var found bool
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "workflow_event_lag_ms" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			require.Len(t, hist.DataPoints, 1)
			require.Equal(t, uint64(1), hist.DataPoints[0].Count)
			// newEvent 的发生时间在一秒前。
			require.GreaterOrEqual(t, hist.DataPoints[0].Sum, float64(1000))
			found = true
		}
	}
	require.True(t, found, "lag histogram not exported")
}
