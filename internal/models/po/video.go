// Package po 定义面向持久化的数据对象（Persistent Objects），由 Repository 层使用。
// PO 对象映射数据库表结构，不直接暴露给上层业务逻辑。
package po

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatus 表示视频在外部视频平台上的处理状态。
type VideoStatus string

// 视频状态常量定义，取值与视频平台 webhook 中的 status 字段保持一致。
const (
	VideoStatusWaiting      VideoStatus = "waiting"       // 已申请上传槽位，等待上传
	VideoStatusPreparing    VideoStatus = "preparing"     // 平台转码中
	VideoStatusAssetCreated VideoStatus = "asset_created" // 资产已创建
	VideoStatusReady        VideoStatus = "ready"         // 可播放
	VideoStatusErrored      VideoStatus = "errored"       // 处理失败
	VideoStatusCancelled    VideoStatus = "cancelled"     // 已取消或状态未知
	VideoStatusTimedOut     VideoStatus = "timed_out"     // 上传超时
)

// ParseVideoStatus 将平台上报的状态字符串映射为 VideoStatus。
// 无法识别的状态统一降级为 cancelled。
func ParseVideoStatus(raw string) VideoStatus {
	switch status := VideoStatus(raw); status {
	case VideoStatusWaiting, VideoStatusPreparing, VideoStatusAssetCreated,
		VideoStatusReady, VideoStatusErrored, VideoStatusCancelled, VideoStatusTimedOut:
		return status
	default:
		return VideoStatusCancelled
	}
}

// Visibility 表示视频可见性。
type Visibility string

// 可见性取值。
const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Valid 判断可见性取值是否合法。
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Video 表示 videos 表的数据库实体。
type Video struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CategoryID   *uuid.UUID
	Title        string
	Description  *string
	Visibility   Visibility
	DurationMS   int32
	ThumbnailURL *string
	ThumbnailKey *string
	PreviewURL   *string
	PreviewKey   *string
	Status       VideoStatus
	UploadID     *string
	AssetID      *string
	PlaybackID   *string
	TrackID      *string
	TrackStatus  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnedBy 判断视频是否属于指定用户。
func (v *Video) OwnedBy(userID uuid.UUID) bool {
	return v != nil && v.UserID == userID
}
