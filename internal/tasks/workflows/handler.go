package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

// StepExecutor 执行一次工作流的全部步骤。
type StepExecutor interface {
	Execute(ctx context.Context, evt *outboxevents.WorkflowRequested) error
}

// EventHandler 把 inbox 事件交给 StepExecutor。
// 被跳过的工作流直接确认；其余错误返回给 Runner 以便重投。
type EventHandler struct {
	steps   StepExecutor
	log     *log.Helper
	metrics *InboxMetrics
	clock   func() time.Time
}

// NewEventHandler 构造 EventHandler。metrics 可为空。
func NewEventHandler(steps StepExecutor, logger log.Logger, metrics *InboxMetrics) *EventHandler {
	return &EventHandler{
		steps:   steps,
		log:     log.NewHelper(logger),
		metrics: metrics,
		clock:   time.Now,
	}
}

// Handle 执行工作流。
func (h *EventHandler) Handle(ctx context.Context, _ txmanager.Session, evt *outboxevents.WorkflowRequested, _ *store.InboxEvent) error {
	if evt == nil {
		return fmt.Errorf("workflow inbox: nil event")
	}
	workflow := evt.Kind().String()

	err := h.steps.Execute(ctx, evt)
	switch {
	case err == nil:
		h.metrics.recordSuccess(ctx, workflow, evt.OccurredAt, h.clock())
		h.log.WithContext(ctx).Infow("msg", "workflow completed", "workflow", workflow, "event_id", evt.EventID, "video_id", evt.VideoID)
		return nil
	case errors.Is(err, services.ErrWorkflowSkipped):
		h.metrics.recordSkipped(ctx, workflow)
		h.log.WithContext(ctx).Warnw("msg", "workflow skipped", "workflow", workflow, "event_id", evt.EventID, "video_id", evt.VideoID, "reason", err)
		return nil
	default:
		h.metrics.recordFailure(ctx, workflow, err)
		return fmt.Errorf("workflow inbox: %s: %w", workflow, err)
	}
}
