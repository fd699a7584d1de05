// Package dto 定义 RPC 过程的输入结构与校验规则。
package dto

import (
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/google/uuid"
)

// Empty 为无参数过程的输入。
type Empty struct{}

// ByID 为按主键操作的输入。
type ByID struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

// ByVideo 为以视频为目标的输入。
type ByVideo struct {
	VideoID uuid.UUID `json:"videoId" validate:"required"`
}

// ByComment 为以评论为目标的输入。
type ByComment struct {
	CommentID uuid.UUID `json:"commentId" validate:"required"`
}

// ByUser 为以用户为目标的输入。
type ByUser struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}

// Page 为按时间排序的分页参数。
type Page struct {
	Cursor *pagination.Cursor[time.Time] `json:"cursor" validate:"omitempty"`
	Limit  int                           `json:"limit" validate:"omitempty,min=1,max=100"`
}

// CountPage 为按派生计数排序的分页参数。
type CountPage struct {
	Cursor *pagination.Cursor[int64] `json:"cursor" validate:"omitempty"`
	Limit  int                       `json:"limit" validate:"omitempty,min=1,max=100"`
}

// VideoFeed 为首页与频道页视频列表的参数。
type VideoFeed struct {
	Page
	CategoryID *uuid.UUID `json:"categoryId"`
	UserID     *uuid.UUID `json:"userId"`
}

// Search 为搜索参数。
type Search struct {
	Page
	Query      string     `json:"query" validate:"max=200"`
	CategoryID *uuid.UUID `json:"categoryId"`
}

// VideoPage 为视频维度下的分页参数。
type VideoPage struct {
	Page
	VideoID uuid.UUID `json:"videoId" validate:"required"`
}

// VideoUpdate 为视频元数据更新参数，缺省字段保持不变。
type VideoUpdate struct {
	ID          uuid.UUID      `json:"id" validate:"required"`
	Title       *string        `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string        `json:"description" validate:"omitempty,max=5000"`
	CategoryID  *uuid.UUID     `json:"categoryId"`
	Visibility  *po.Visibility `json:"visibility" validate:"omitempty,oneof=public private"`
}

// ThumbnailPrompt 为生成缩略图的参数。
type ThumbnailPrompt struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Prompt string    `json:"prompt" validate:"required,min=10,max=1000"`
}

// CommentCreate 为发表评论的参数。
type CommentCreate struct {
	VideoID  uuid.UUID  `json:"videoId" validate:"required"`
	ParentID *uuid.UUID `json:"parentId"`
	Value    string     `json:"value" validate:"required,max=5000"`
}

// CommentList 为评论列表参数，ParentID 为空时列出顶层评论。
type CommentList struct {
	Page
	VideoID  uuid.UUID  `json:"videoId" validate:"required"`
	ParentID *uuid.UUID `json:"parentId"`
}

// PlaylistCreate 为新建播放列表的参数。
type PlaylistCreate struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// PlaylistVideo 为播放列表增删视频的参数。
type PlaylistVideo struct {
	PlaylistID uuid.UUID `json:"playlistId" validate:"required"`
	VideoID    uuid.UUID `json:"videoId" validate:"required"`
}

// PlaylistVideos 为播放列表视频分页参数。
type PlaylistVideos struct {
	Page
	PlaylistID uuid.UUID `json:"playlistId" validate:"required"`
}

// AISettings 为保存 API Key 的参数。
type AISettings struct {
	APIKey string `json:"apiKey" validate:"required"`
}

// AISettingsState 报告是否已保存 API Key。
type AISettingsState struct {
	HasKey bool `json:"hasKey"`
}
