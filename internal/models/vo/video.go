// Package vo 定义视图对象（View Objects），用于向上层传递业务数据。
// VO 对象由 Service 层返回并直接编码为 RPC 响应，隔离内部数据结构。
package vo

import (
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/google/uuid"
)

// Video 表示视频本身的字段。存储对象 key 属于内部数据，不对外暴露。
type Video struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	CategoryID   *uuid.UUID `json:"categoryId"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Visibility   string     `json:"visibility"`
	DurationMS   int32      `json:"duration"`
	ThumbnailURL *string    `json:"thumbnailUrl"`
	PreviewURL   *string    `json:"previewUrl"`
	Status       string     `json:"muxStatus"`
	UploadID     *string    `json:"muxUploadId"`
	AssetID      *string    `json:"muxAssetId"`
	PlaybackID   *string    `json:"muxPlaybackId"`
	TrackID      *string    `json:"muxTrackId"`
	TrackStatus  *string    `json:"muxTrackStatus"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewVideo 从持久化实体构造 VO。
func NewVideo(v *po.Video) *Video {
	if v == nil {
		return nil
	}
	return &Video{
		ID:           v.ID,
		UserID:       v.UserID,
		CategoryID:   v.CategoryID,
		Title:        v.Title,
		Description:  v.Description,
		Visibility:   string(v.Visibility),
		DurationMS:   v.DurationMS,
		ThumbnailURL: v.ThumbnailURL,
		PreviewURL:   v.PreviewURL,
		Status:       string(v.Status),
		UploadID:     v.UploadID,
		AssetID:      v.AssetID,
		PlaybackID:   v.PlaybackID,
		TrackID:      v.TrackID,
		TrackStatus:  v.TrackStatus,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

// VideoCard 表示列表中的视频：视频字段、作者与计数。
type VideoCard struct {
	Video
	User         User  `json:"user"`
	ViewCount    int64 `json:"viewCount"`
	LikeCount    int64 `json:"likeCount"`
	DislikeCount int64 `json:"dislikeCount"`
	CommentCount int64 `json:"commentCount"`
}

// NewVideoCard 从列表行构造 VO。
func NewVideoCard(c po.VideoCardView) VideoCard {
	return VideoCard{
		Video:        *NewVideo(&c.Video),
		User:         NewUser(c.Owner),
		ViewCount:    c.Stats.ViewCount,
		LikeCount:    c.Stats.LikeCount,
		DislikeCount: c.Stats.DislikeCount,
		CommentCount: c.Stats.CommentCount,
	}
}

// VideoDetail 表示视频详情。ViewerReaction 为空表示观看者未互动或未登录。
type VideoDetail struct {
	VideoCard
	ViewerReaction       *string `json:"viewerReaction"`
	OwnerSubscriberCount int64   `json:"subscriberCount"`
	ViewerSubscribed     bool    `json:"viewerSubscribed"`
}

// NewVideoDetail 从详情行构造 VO。
func NewVideoDetail(d *po.VideoDetailView) *VideoDetail {
	if d == nil {
		return nil
	}
	return &VideoDetail{
		VideoCard:            NewVideoCard(d.VideoCardView),
		ViewerReaction:       reactionString(d.ViewerReaction),
		OwnerSubscriberCount: d.OwnerSubscriberCount,
		ViewerSubscribed:     d.ViewerSubscribed,
	}
}

// WatchedVideo 表示观看历史条目。
type WatchedVideo struct {
	VideoCard
	ViewedAt time.Time `json:"viewedAt"`
}

// LikedVideo 表示点赞列表条目。
type LikedVideo struct {
	VideoCard
	LikedAt time.Time `json:"likedAt"`
}

// VideoUpload 表示上传初始化结果：直传地址与新建的视频。
type VideoUpload struct {
	URL   string `json:"url"`
	Video *Video `json:"video"`
}

// WorkflowRun 表示已触发的后台工作流。
type WorkflowRun struct {
	WorkflowRunID uuid.UUID `json:"workflowRunId"`
}

// MapPage 转换分页结果的元素类型，游标保持不变。
func MapPage[T, U any, K pagination.Key](page pagination.Page[T, K], fn func(T) U) pagination.Page[U, K] {
	items := make([]U, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, fn(item))
	}
	return pagination.Page[U, K]{Items: items, NextCursor: page.NextCursor}
}

// NewWatchedVideo 从观看历史行构造 VO。
func NewWatchedVideo(w po.WatchedVideoView) WatchedVideo {
	return WatchedVideo{VideoCard: NewVideoCard(w.VideoCardView), ViewedAt: w.ViewedAt}
}

// NewLikedVideo 从点赞行构造 VO。
func NewLikedVideo(l po.LikedVideoView) LikedVideo {
	return LikedVideo{VideoCard: NewVideoCard(l.VideoCardView), LikedAt: l.LikedAt}
}

func reactionString(t *po.ReactionType) *string {
	if t == nil {
		return nil
	}
	value := string(*t)
	return &value
}
