package repositories

import (
	"context"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/models/po"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ViewRepository 维护 video_views 表。
type ViewRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewViewRepository 构造 ViewRepository。
func NewViewRepository(db *pgxpool.Pool, logger log.Logger) *ViewRepository {
	return &ViewRepository{db: db, log: log.NewHelper(logger)}
}

// Upsert 记录一次观看。重复观看只刷新 updated_at，观看数按去重用户计算。
func (r *ViewRepository) Upsert(ctx context.Context, sess txmanager.Session, userID, videoID uuid.UUID) (*po.VideoView, error) {
	const query = `
INSERT INTO video_views (user_id, video_id)
VALUES (@user_id, @video_id)
ON CONFLICT (user_id, video_id) DO UPDATE SET updated_at = now()
RETURNING user_id, video_id, created_at, updated_at`

	var view po.VideoView
	err := conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"user_id":  userID,
		"video_id": videoID,
	}).Scan(&view.UserID, &view.VideoID, &view.CreatedAt, &view.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("upsert view failed: user_id=%s video_id=%s err=%v", userID, videoID, err)
		return nil, fmt.Errorf("upsert view: %w", err)
	}
	return &view, nil
}
