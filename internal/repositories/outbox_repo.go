package repositories

import (
	"context"
	"fmt"

	outboxpkg "github.com/bionicotaku/lingo-utils/outbox"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxMessage 描述一条待发布的工作流触发事件。
type OutboxMessage = store.Message

// OutboxRepository 把工作流触发事件写入 outbox_events，与业务写入同事务提交。
// 发布由 outbox publisher 任务异步完成。
type OutboxRepository struct {
	delegate *store.Repository
	log      *log.Helper
}

// NewOutboxRepository 基于 lingo-utils 共享仓储构造 OutboxRepository。
func NewOutboxRepository(db *pgxpool.Pool, logger log.Logger, cfg outboxcfg.Config) *OutboxRepository {
	helper := log.NewHelper(logger)
	shared, err := outboxpkg.NewRepository(db, logger, outboxpkg.RepositoryOptions{Schema: cfg.Schema})
	if err != nil {
		helper.Errorw("msg", "init outbox repository with schema failed, using default", "schema", cfg.Schema, "error", err)
		shared = store.NewRepository(db, logger)
	}
	return &OutboxRepository{delegate: shared, log: helper}
}

// Enqueue 在事务内写入事件。
func (r *OutboxRepository) Enqueue(ctx context.Context, sess txmanager.Session, msg OutboxMessage) error {
	if err := r.delegate.Enqueue(ctx, sess, msg); err != nil {
		r.log.WithContext(ctx).Errorf("enqueue outbox event failed: event_id=%s type=%s err=%v", msg.EventID, msg.EventType, err)
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// CountPending 返回尚未发布的事件数量。
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	return r.delegate.CountPending(ctx)
}

// Shared 返回底层共享仓储，供 publisher 任务使用。
func (r *OutboxRepository) Shared() *store.Repository {
	return r.delegate
}
