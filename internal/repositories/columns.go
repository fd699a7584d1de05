package repositories

import (
	"github.com/sanidhyy/yt-clone/internal/models/po"
)

// 视频行的公共列，别名保证在 CTE 中不与作者列冲突。
const videoColumns = `v.id, v.user_id, v.category_id, v.title, v.description, v.visibility,
	v.duration_ms, v.thumbnail_url, v.thumbnail_key, v.preview_url, v.preview_key,
	v.status, v.upload_id, v.asset_id, v.playback_id, v.track_id, v.track_status,
	v.created_at, v.updated_at`

const ownerColumns = `u.id AS owner_id, u.external_id AS owner_external_id, u.name AS owner_name,
	u.image_url AS owner_image_url, u.banner_url AS owner_banner_url, u.banner_key AS owner_banner_key,
	u.created_at AS owner_created_at, u.updated_at AS owner_updated_at`

const userColumns = `u.id, u.external_id, u.name, u.image_url, u.banner_url, u.banner_key, u.created_at, u.updated_at`

// 相关子查询：每个计数都是对子表的逐行聚合，与主查询处于同一快照。
const (
	viewCountExpr    = `(SELECT count(*) FROM video_views vv WHERE vv.video_id = v.id)`
	likeCountExpr    = `(SELECT count(*) FROM video_reactions vr WHERE vr.video_id = v.id AND vr.type = 'like')`
	dislikeCountExpr = `(SELECT count(*) FROM video_reactions vr WHERE vr.video_id = v.id AND vr.type = 'dislike')`
	commentCountExpr = `(SELECT count(*) FROM comments cm WHERE cm.video_id = v.id)`
	subscriberExpr   = `(SELECT count(*) FROM subscriptions s WHERE s.creator_id = u.id)`
	userVideoExpr    = `(SELECT count(*) FROM videos uv WHERE uv.user_id = u.id)`
)

// cardColumns 是视频卡片的完整列集合：视频、作者、计数。
const cardColumns = videoColumns + `,
	` + ownerColumns + `,
	` + viewCountExpr + ` AS view_count,
	` + likeCountExpr + ` AS like_count,
	` + dislikeCountExpr + ` AS dislike_count,
	` + commentCountExpr + ` AS comment_count`

// visibleToViewer 限制非作者只能看到公开视频，作者总能看到自己的视频。
const visibleToViewer = `(v.visibility = 'public' OR v.user_id = ANY(@viewer_ids::uuid[]))`

// publicOnly 只保留公开视频，用于观看历史与点赞列表。
const publicOnly = `v.visibility = 'public'`

type rowScanner interface {
	Scan(dest ...any) error
}

func videoDest(v *po.Video) []any {
	return []any{
		&v.ID, &v.UserID, &v.CategoryID, &v.Title, &v.Description, &v.Visibility,
		&v.DurationMS, &v.ThumbnailURL, &v.ThumbnailKey, &v.PreviewURL, &v.PreviewKey,
		&v.Status, &v.UploadID, &v.AssetID, &v.PlaybackID, &v.TrackID, &v.TrackStatus,
		&v.CreatedAt, &v.UpdatedAt,
	}
}

func userDest(u *po.User) []any {
	return []any{&u.ID, &u.ExternalID, &u.Name, &u.ImageURL, &u.BannerURL, &u.BannerKey, &u.CreatedAt, &u.UpdatedAt}
}

func cardDest(c *po.VideoCardView) []any {
	dest := videoDest(&c.Video)
	dest = append(dest, userDest(&c.Owner)...)
	return append(dest, &c.Stats.ViewCount, &c.Stats.LikeCount, &c.Stats.DislikeCount, &c.Stats.CommentCount)
}

func scanVideo(row rowScanner) (*po.Video, error) {
	var v po.Video
	if err := row.Scan(videoDest(&v)...); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanUser(row rowScanner) (*po.User, error) {
	var u po.User
	if err := row.Scan(userDest(&u)...); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanCard(row rowScanner, extra ...any) (po.VideoCardView, error) {
	var card po.VideoCardView
	dest := append(cardDest(&card), extra...)
	err := row.Scan(dest...)
	return card, err
}
