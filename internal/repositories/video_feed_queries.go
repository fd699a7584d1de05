package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FeedQuery 描述按 updated_at 排序的视频列表查询，零值字段表示不过滤。
type FeedQuery struct {
	Viewer       *uuid.UUID
	CategoryID   *uuid.UUID
	UserID       *uuid.UUID
	SubscriberID *uuid.UUID
	PlaylistID   *uuid.UUID
	ExcludeID    *uuid.UUID
	Search       string
	Cursor       *pagination.Cursor[time.Time]
	Limit        int
}

// TrendingQuery 描述按观看人数排序的视频列表查询。游标携带派生的观看数。
type TrendingQuery struct {
	Viewer *uuid.UUID
	Cursor *pagination.Cursor[int64]
	Limit  int
}

// ActivityQuery 描述用户行为列表（观看历史、点赞）查询，按行为时间排序。
type ActivityQuery struct {
	UserID uuid.UUID
	Cursor *pagination.Cursor[time.Time]
	Limit  int
}

// feedFilters 拼装视频过滤片段，可见性过滤总是存在。
func feedFilters(q FeedQuery, args pgx.NamedArgs) []string {
	filters := []string{visibleToViewer}
	if q.CategoryID != nil {
		filters = append(filters, `v.category_id = @category_id`)
		args["category_id"] = *q.CategoryID
	}
	if q.UserID != nil {
		filters = append(filters, `v.user_id = @user_id`)
		args["user_id"] = *q.UserID
	}
	if q.SubscriberID != nil {
		filters = append(filters, `v.user_id IN (SELECT creator_id FROM subscriptions WHERE viewer_id = @subscriber_id)`)
		args["subscriber_id"] = *q.SubscriberID
	}
	if q.PlaylistID != nil {
		filters = append(filters, `EXISTS (SELECT 1 FROM playlist_videos pv WHERE pv.playlist_id = @playlist_id AND pv.video_id = v.id)`)
		args["playlist_id"] = *q.PlaylistID
	}
	if q.ExcludeID != nil {
		filters = append(filters, `v.id <> @exclude_id`)
		args["exclude_id"] = *q.ExcludeID
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		filters = append(filters, `(v.title ILIKE @search OR v.description ILIKE @search)`)
		args["search"] = "%" + escapeLike(term) + "%"
	}
	return filters
}

// buildFeedQuery 返回时间序视频列表的 SQL 与参数。
func buildFeedQuery(q FeedQuery) (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{
		"viewer_ids": viewerIDs(q.Viewer),
		"limit":      pagination.Window(q.Limit),
	}
	filters := feedFilters(q, args)
	cursor := pagination.Clause("feed.updated_at", "feed.id", q.Cursor, args)
	sql := fmt.Sprintf(`
WITH feed AS (
	SELECT %s
	FROM videos v
	JOIN users u ON u.id = v.user_id
	WHERE %s
)
SELECT * FROM feed
WHERE %s
%s
LIMIT @limit`, cardColumns, strings.Join(filters, " AND "), cursor, pagination.OrderBy("feed.updated_at", "feed.id"))
	return sql, args
}

// buildTrendingQuery 返回按观看人数排序的视频列表。
func buildTrendingQuery(q TrendingQuery) (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{
		"viewer_ids": viewerIDs(q.Viewer),
		"limit":      pagination.Window(q.Limit),
	}
	cursor := pagination.Clause("feed.view_count", "feed.id", q.Cursor, args)
	sql := fmt.Sprintf(`
WITH feed AS (
	SELECT %s
	FROM videos v
	JOIN users u ON u.id = v.user_id
	WHERE %s
)
SELECT * FROM feed
WHERE %s
%s
LIMIT @limit`, cardColumns, visibleToViewer, cursor, pagination.OrderBy("feed.view_count", "feed.id"))
	return sql, args
}

// buildHistoryQuery 返回用户观看历史，按最近观看时间排序。
func buildHistoryQuery(q ActivityQuery) (string, pgx.NamedArgs) {
	return buildActivityQuery(q, `JOIN video_views act ON act.video_id = v.id AND act.user_id = @user_id`, "viewed_at")
}

// buildLikedQuery 返回用户点赞过的视频，按点赞时间排序。
func buildLikedQuery(q ActivityQuery) (string, pgx.NamedArgs) {
	return buildActivityQuery(q, `JOIN video_reactions act ON act.video_id = v.id AND act.user_id = @user_id AND act.type = 'like'`, "liked_at")
}

// buildActivityQuery 只返回公开视频：自己后来设为私有的视频不出现在历史与点赞列表中。
func buildActivityQuery(q ActivityQuery, join, column string) (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{
		"user_id": q.UserID,
		"limit":   pagination.Window(q.Limit),
	}
	cursor := pagination.Clause("feed."+column, "feed.id", q.Cursor, args)
	sql := fmt.Sprintf(`
WITH feed AS (
	SELECT %s, act.updated_at AS %s
	FROM videos v
	JOIN users u ON u.id = v.user_id
	%s
	WHERE %s
)
SELECT * FROM feed
WHERE %s
%s
LIMIT @limit`, cardColumns, column, join, publicOnly, cursor, pagination.OrderBy("feed."+column, "feed.id"))
	return sql, args
}

// escapeLike 转义 LIKE 通配符，用户输入按字面匹配。
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
