package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/models/po"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVideoNotFound 表示请求的视频不存在（或不属于调用者）。
var ErrVideoNotFound = errors.New("video not found")

// ErrCategoryNotFound 表示引用的分类不存在。
var ErrCategoryNotFound = errors.New("category not found")

// VideoRepository 提供视频写模型与详情读取能力。
type VideoRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewVideoRepository 构造 VideoRepository 实例（供 Wire 注入使用）。
func NewVideoRepository(db *pgxpool.Pool, logger log.Logger) *VideoRepository {
	return &VideoRepository{db: db, log: log.NewHelper(logger)}
}

// CreateVideoInput 表示创建视频的输入参数。
type CreateVideoInput struct {
	UserID   uuid.UUID
	Title    string
	UploadID string
	Status   po.VideoStatus
}

// UpdateVideoInput 表示作者可编辑字段，nil 表示保持原值。
type UpdateVideoInput struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       *string
	Description *string
	CategoryID  *uuid.UUID
	Visibility  *po.Visibility
}

// UpdateAssetInput 表示视频平台回调携带的资产字段，按 upload_id 定位。
type UpdateAssetInput struct {
	UploadID     string
	AssetID      *string
	PlaybackID   *string
	Status       *po.VideoStatus
	DurationMS   *int32
	ThumbnailURL *string
	ThumbnailKey *string
	PreviewURL   *string
	PreviewKey   *string
}

// Create 创建新视频记录。
func (r *VideoRepository) Create(ctx context.Context, sess txmanager.Session, input CreateVideoInput) (*po.Video, error) {
	const query = `
INSERT INTO videos AS v (user_id, title, upload_id, status)
VALUES (@user_id, @title, @upload_id, @status)
RETURNING ` + videoColumns

	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"user_id":   input.UserID,
		"title":     input.Title,
		"upload_id": input.UploadID,
		"status":    input.Status,
	}))
	if err != nil {
		r.log.WithContext(ctx).Errorf("create video failed: user_id=%s err=%v", input.UserID, err)
		return nil, fmt.Errorf("create video: %w", err)
	}
	r.log.WithContext(ctx).Infof("video created: video_id=%s upload_id=%s", video.ID, input.UploadID)
	return video, nil
}

// Get 根据主键查询视频，不做可见性过滤。
func (r *VideoRepository) Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.Video, error) {
	return r.getOne(ctx, sess, `v.id = @id`, pgx.NamedArgs{"id": id})
}

// GetOwned 查询属于 userID 的视频，不属于时返回 ErrVideoNotFound。
func (r *VideoRepository) GetOwned(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Video, error) {
	return r.getOne(ctx, sess, `v.id = @id AND v.user_id = @user_id`, pgx.NamedArgs{"id": id, "user_id": userID})
}

// GetByUploadID 根据视频平台上传标识查询视频。
func (r *VideoRepository) GetByUploadID(ctx context.Context, sess txmanager.Session, uploadID string) (*po.Video, error) {
	return r.getOne(ctx, sess, `v.upload_id = @upload_id`, pgx.NamedArgs{"upload_id": uploadID})
}

func (r *VideoRepository) getOne(ctx context.Context, sess txmanager.Session, where string, args pgx.NamedArgs) (*po.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos v WHERE ` + where
	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, args))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// Update 更新作者可编辑字段，仅作用于属于 UserID 的视频。
func (r *VideoRepository) Update(ctx context.Context, sess txmanager.Session, input UpdateVideoInput) (*po.Video, error) {
	const query = `
UPDATE videos v SET
	title       = COALESCE(@title, v.title),
	description = COALESCE(@description, v.description),
	category_id = COALESCE(@category_id, v.category_id),
	visibility  = COALESCE(@visibility, v.visibility),
	updated_at  = now()
WHERE v.id = @id AND v.user_id = @user_id
RETURNING ` + videoColumns

	var visibility *string
	if input.Visibility != nil {
		value := string(*input.Visibility)
		visibility = &value
	}
	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"id":          input.ID,
		"user_id":     input.UserID,
		"title":       input.Title,
		"description": input.Description,
		"category_id": input.CategoryID,
		"visibility":  visibility,
	}))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrVideoNotFound
		case isForeignKeyViolation(err):
			return nil, ErrCategoryNotFound
		}
		r.log.WithContext(ctx).Errorf("update video failed: video_id=%s err=%v", input.ID, err)
		return nil, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

// UpdateAsset 根据 upload_id 应用视频平台回调的资产字段。
func (r *VideoRepository) UpdateAsset(ctx context.Context, sess txmanager.Session, input UpdateAssetInput) (*po.Video, error) {
	const query = `
UPDATE videos v SET
	asset_id      = COALESCE(@asset_id, v.asset_id),
	playback_id   = COALESCE(@playback_id, v.playback_id),
	status        = COALESCE(@status, v.status),
	duration_ms   = COALESCE(@duration_ms, v.duration_ms),
	thumbnail_url = COALESCE(@thumbnail_url, v.thumbnail_url),
	thumbnail_key = COALESCE(@thumbnail_key, v.thumbnail_key),
	preview_url   = COALESCE(@preview_url, v.preview_url),
	preview_key   = COALESCE(@preview_key, v.preview_key),
	updated_at    = now()
WHERE v.upload_id = @upload_id
RETURNING ` + videoColumns

	var status *string
	if input.Status != nil {
		value := string(*input.Status)
		status = &value
	}
	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"upload_id":     input.UploadID,
		"asset_id":      input.AssetID,
		"playback_id":   input.PlaybackID,
		"status":        status,
		"duration_ms":   input.DurationMS,
		"thumbnail_url": input.ThumbnailURL,
		"thumbnail_key": input.ThumbnailKey,
		"preview_url":   input.PreviewURL,
		"preview_key":   input.PreviewKey,
	}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("update video asset failed: upload_id=%s err=%v", input.UploadID, err)
		return nil, fmt.Errorf("update video asset: %w", err)
	}
	return video, nil
}

// UpdateTrack 根据 asset_id 写入字幕轨道信息。
func (r *VideoRepository) UpdateTrack(ctx context.Context, sess txmanager.Session, assetID, trackID, trackStatus string) (*po.Video, error) {
	const query = `
UPDATE videos v SET track_id = @track_id, track_status = @track_status, updated_at = now()
WHERE v.asset_id = @asset_id
RETURNING ` + videoColumns

	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"asset_id":     assetID,
		"track_id":     trackID,
		"track_status": trackStatus,
	}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("update video track: %w", err)
	}
	return video, nil
}

// SetThumbnail 替换视频封面，url/key 为空表示清除。
func (r *VideoRepository) SetThumbnail(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID, url, key *string) (*po.Video, error) {
	const query = `
UPDATE videos v SET thumbnail_url = @url, thumbnail_key = @key, updated_at = now()
WHERE v.id = @id AND v.user_id = @user_id
RETURNING ` + videoColumns

	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"id": id, "user_id": userID, "url": url, "key": key,
	}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("set video thumbnail: %w", err)
	}
	return video, nil
}

// Delete 删除属于 userID 的视频并返回被删除的行，评论/互动/观看/播放列表关联随之级联删除。
func (r *VideoRepository) Delete(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Video, error) {
	const query = `DELETE FROM videos v WHERE v.id = @id AND v.user_id = @user_id RETURNING ` + videoColumns
	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("delete video failed: video_id=%s err=%v", id, err)
		return nil, fmt.Errorf("delete video: %w", err)
	}
	return video, nil
}

// DeleteByUploadID 删除 upload_id 对应的视频（平台侧资产已删除）。
func (r *VideoRepository) DeleteByUploadID(ctx context.Context, sess txmanager.Session, uploadID string) (*po.Video, error) {
	const query = `DELETE FROM videos v WHERE v.upload_id = @upload_id RETURNING ` + videoColumns
	video, err := scanVideo(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{"upload_id": uploadID}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("delete video by upload id: %w", err)
	}
	return video, nil
}

// GetDetail 查询视频详情：计数、观看者的互动状态、作者订阅数与观看者订阅状态。
// 非作者只能读取公开视频。
func (r *VideoRepository) GetDetail(ctx context.Context, sess txmanager.Session, id uuid.UUID, viewer *uuid.UUID) (*po.VideoDetailView, error) {
	const query = `
WITH viewer_reactions AS (
	SELECT video_id, type FROM video_reactions WHERE user_id = ANY(@viewer_ids::uuid[])
), viewer_subscriptions AS (
	SELECT creator_id FROM subscriptions WHERE viewer_id = ANY(@viewer_ids::uuid[])
)
SELECT ` + cardColumns + `,
	vrx.type AS viewer_reaction,
	` + subscriberExpr + ` AS owner_subscriber_count,
	(vsx.creator_id IS NOT NULL) AS viewer_subscribed
FROM videos v
JOIN users u ON u.id = v.user_id
LEFT JOIN viewer_reactions vrx ON vrx.video_id = v.id
LEFT JOIN viewer_subscriptions vsx ON vsx.creator_id = u.id
WHERE v.id = @id AND ` + visibleToViewer

	var view po.VideoDetailView
	card, err := scanCard(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"id":         id,
		"viewer_ids": viewerIDs(viewer),
	}), &view.ViewerReaction, &view.OwnerSubscriberCount, &view.ViewerSubscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("get video detail failed: video_id=%s err=%v", id, err)
		return nil, fmt.Errorf("get video detail: %w", err)
	}
	view.VideoCardView = card
	return &view, nil
}
