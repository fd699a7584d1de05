package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository 维护 subscriptions 表。
type SubscriptionRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewSubscriptionRepository 构造 SubscriptionRepository。
func NewSubscriptionRepository(db *pgxpool.Pool, logger log.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, log: log.NewHelper(logger)}
}

// CreatorQuery 描述订阅列表查询。
type CreatorQuery struct {
	ViewerID uuid.UUID
	Cursor   *pagination.Cursor[time.Time]
	Limit    int
}

// CreatorPage 表示订阅列表分页结果。
type CreatorPage = pagination.Page[po.SubscribedCreatorView, time.Time]

// Insert 建立订阅。已存在时不做任何修改，返回 false。
func (r *SubscriptionRepository) Insert(ctx context.Context, sess txmanager.Session, viewerID, creatorID uuid.UUID) (bool, error) {
	const query = `
INSERT INTO subscriptions (viewer_id, creator_id)
VALUES (@viewer_id, @creator_id)
ON CONFLICT (viewer_id, creator_id) DO NOTHING`

	tag, err := conn(r.db, sess).Exec(ctx, query, pgx.NamedArgs{"viewer_id": viewerID, "creator_id": creatorID})
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrUserNotFound
		}
		r.log.WithContext(ctx).Errorf("insert subscription failed: viewer=%s creator=%s err=%v", viewerID, creatorID, err)
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete 取消订阅，返回是否删除了记录。
func (r *SubscriptionRepository) Delete(ctx context.Context, sess txmanager.Session, viewerID, creatorID uuid.UUID) (bool, error) {
	tag, err := conn(r.db, sess).Exec(ctx,
		`DELETE FROM subscriptions WHERE viewer_id = $1 AND creator_id = $2`, viewerID, creatorID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete subscription failed: viewer=%s creator=%s err=%v", viewerID, creatorID, err)
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListCreators 分页返回用户订阅的作者，按订阅时间倒序。
func (r *SubscriptionRepository) ListCreators(ctx context.Context, sess txmanager.Session, q CreatorQuery) (CreatorPage, error) {
	args := pgx.NamedArgs{"viewer_id": q.ViewerID, "limit": pagination.Window(q.Limit)}
	cursor := pagination.Clause("feed.updated_at", "feed.creator_id", q.Cursor, args)
	query := fmt.Sprintf(`
WITH feed AS (
	SELECT sub.viewer_id, sub.creator_id, sub.created_at, sub.updated_at, %s, %s AS subscriber_count
	FROM subscriptions sub
	JOIN users u ON u.id = sub.creator_id
	WHERE sub.viewer_id = @viewer_id
)
SELECT * FROM feed
WHERE %s
%s
LIMIT @limit`, ownerColumns, subscriberExpr, cursor, pagination.OrderBy("feed.updated_at", "feed.creator_id"))

	rows, err := conn(r.db, sess).Query(ctx, query, args)
	if err != nil {
		r.log.WithContext(ctx).Errorf("list subscriptions failed: viewer=%s err=%v", q.ViewerID, err)
		return CreatorPage{}, fmt.Errorf("list subscriptions: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (po.SubscribedCreatorView, error) {
		var item po.SubscribedCreatorView
		dest := []any{&item.ViewerID, &item.CreatorID, &item.CreatedAt, &item.UpdatedAt}
		dest = append(dest, userDest(&item.Creator)...)
		dest = append(dest, &item.SubscriberCount)
		return item, row.Scan(dest...)
	})
	if err != nil {
		return CreatorPage{}, fmt.Errorf("scan subscriptions: %w", err)
	}
	return pagination.Slice(items, q.Limit, func(item po.SubscribedCreatorView) pagination.Cursor[time.Time] {
		return pagination.Cursor[time.Time]{ID: item.CreatorID, Key: item.UpdatedAt}
	}), nil
}
