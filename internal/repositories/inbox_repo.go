package repositories

import (
	outboxpkg "github.com/bionicotaku/lingo-utils/outbox"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InboxEvent 表示工作流任务已接收的事件记录。
type InboxEvent = store.InboxEvent

// InboxRepository 记录工作流任务消费过的事件，用于去重。
type InboxRepository struct {
	delegate *store.Repository
}

// NewInboxRepository 基于 lingo-utils 共享仓储构造 InboxRepository。
func NewInboxRepository(db *pgxpool.Pool, logger log.Logger, cfg outboxcfg.Config) *InboxRepository {
	shared, err := outboxpkg.NewRepository(db, logger, outboxpkg.RepositoryOptions{Schema: cfg.Schema})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init inbox repository with schema failed, using default", "schema", cfg.Schema, "error", err)
		shared = store.NewRepository(db, logger)
	}
	return &InboxRepository{delegate: shared}
}

// Shared 返回底层共享仓储，供 inbox runner 使用。
func (r *InboxRepository) Shared() *store.Repository {
	return r.delegate
}
