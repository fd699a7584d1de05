package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoFeedRepository 提供各类视频列表的 keyset 分页查询。
type VideoFeedRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewVideoFeedRepository 构造 VideoFeedRepository。
func NewVideoFeedRepository(db *pgxpool.Pool, logger log.Logger) *VideoFeedRepository {
	return &VideoFeedRepository{db: db, log: log.NewHelper(logger)}
}

// VideoPage 表示按时间排序的视频分页结果。
type VideoPage = pagination.Page[po.VideoCardView, time.Time]

// TrendingPage 表示按观看数排序的视频分页结果。
type TrendingPage = pagination.Page[po.VideoCardView, int64]

// List 执行时间序视频列表查询，覆盖首页、分类、搜索、推荐、订阅流、播放列表与工作台。
func (r *VideoFeedRepository) List(ctx context.Context, sess txmanager.Session, q FeedQuery) (VideoPage, error) {
	sql, args := buildFeedQuery(q)
	rows, err := r.collectCards(ctx, sess, sql, args)
	if err != nil {
		return VideoPage{}, fmt.Errorf("list videos: %w", err)
	}
	return pagination.Slice(rows, q.Limit, func(c po.VideoCardView) pagination.Cursor[time.Time] {
		return pagination.Cursor[time.Time]{ID: c.ID, Key: c.UpdatedAt}
	}), nil
}

// ListTrending 按观看人数分页。游标中的观看数是派生值，翻页期间计数变化可能导致重排。
func (r *VideoFeedRepository) ListTrending(ctx context.Context, sess txmanager.Session, q TrendingQuery) (TrendingPage, error) {
	sql, args := buildTrendingQuery(q)
	rows, err := r.collectCards(ctx, sess, sql, args)
	if err != nil {
		return TrendingPage{}, fmt.Errorf("list trending videos: %w", err)
	}
	return pagination.Slice(rows, q.Limit, func(c po.VideoCardView) pagination.Cursor[int64] {
		return pagination.Cursor[int64]{ID: c.ID, Key: c.Stats.ViewCount}
	}), nil
}

// ListHistory 返回观看历史。
func (r *VideoFeedRepository) ListHistory(ctx context.Context, sess txmanager.Session, q ActivityQuery) (pagination.Page[po.WatchedVideoView, time.Time], error) {
	sql, args := buildHistoryQuery(q)
	rows, err := conn(r.db, sess).Query(ctx, sql, args)
	if err != nil {
		r.log.WithContext(ctx).Errorf("list history failed: user_id=%s err=%v", q.UserID, err)
		return pagination.Page[po.WatchedVideoView, time.Time]{}, fmt.Errorf("list history: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (po.WatchedVideoView, error) {
		var item po.WatchedVideoView
		card, scanErr := scanCard(row, &item.ViewedAt)
		item.VideoCardView = card
		return item, scanErr
	})
	if err != nil {
		return pagination.Page[po.WatchedVideoView, time.Time]{}, fmt.Errorf("scan history: %w", err)
	}
	return pagination.Slice(items, q.Limit, func(item po.WatchedVideoView) pagination.Cursor[time.Time] {
		return pagination.Cursor[time.Time]{ID: item.ID, Key: item.ViewedAt}
	}), nil
}

// ListLiked 返回点赞过的视频。
func (r *VideoFeedRepository) ListLiked(ctx context.Context, sess txmanager.Session, q ActivityQuery) (pagination.Page[po.LikedVideoView, time.Time], error) {
	sql, args := buildLikedQuery(q)
	rows, err := conn(r.db, sess).Query(ctx, sql, args)
	if err != nil {
		r.log.WithContext(ctx).Errorf("list liked failed: user_id=%s err=%v", q.UserID, err)
		return pagination.Page[po.LikedVideoView, time.Time]{}, fmt.Errorf("list liked: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (po.LikedVideoView, error) {
		var item po.LikedVideoView
		card, scanErr := scanCard(row, &item.LikedAt)
		item.VideoCardView = card
		return item, scanErr
	})
	if err != nil {
		return pagination.Page[po.LikedVideoView, time.Time]{}, fmt.Errorf("scan liked: %w", err)
	}
	return pagination.Slice(items, q.Limit, func(item po.LikedVideoView) pagination.Cursor[time.Time] {
		return pagination.Cursor[time.Time]{ID: item.ID, Key: item.LikedAt}
	}), nil
}

func (r *VideoFeedRepository) collectCards(ctx context.Context, sess txmanager.Session, sql string, args pgx.NamedArgs) ([]po.VideoCardView, error) {
	rows, err := conn(r.db, sess).Query(ctx, sql, args)
	if err != nil {
		r.log.WithContext(ctx).Errorf("query video cards failed: err=%v", err)
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (po.VideoCardView, error) {
		return scanCard(row)
	})
}
