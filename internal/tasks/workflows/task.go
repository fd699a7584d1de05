package workflows

import (
	"context"
	"time"

	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/inbox"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

// Task 封装工作流 Inbox 消费逻辑。
type Task struct {
	runner *inbox.Runner[outboxevents.WorkflowRequested]
}

// NewTask 构造 Inbox Runner。
func NewTask(
	subscriber gcpubsub.Subscriber,
	inboxRepo *repositories.InboxRepository,
	steps StepExecutor,
	tx txmanager.Manager,
	logger log.Logger,
	cfg outboxcfg.InboxConfig,
) *Task {
	if subscriber == nil || inboxRepo == nil || steps == nil || tx == nil {
		return nil
	}

	handler := NewEventHandler(steps, logger, NewInboxMetrics(nil))
	runner, err := inbox.NewRunner[outboxevents.WorkflowRequested](inbox.RunnerParams[outboxevents.WorkflowRequested]{
		Store:      inboxRepo.Shared(),
		Subscriber: subscriber,
		TxManager:  tx,
		Decoder:    newDecoder(),
		Handler:    handler,
		Config:     cfg.Normalize(),
		Logger:     logger,
	})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "workflow inbox: init runner failed", "error", err)
		return nil
	}

	task := &Task{runner: runner}
	task.runner.WithClock(time.Now)
	return task
}

// Run 启动消费循环。
func (t *Task) Run(ctx context.Context) error {
	if t == nil || t.runner == nil {
		return nil
	}
	return t.runner.Run(ctx)
}
