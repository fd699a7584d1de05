package po

import (
	"time"

	"github.com/google/uuid"
)

// Comment 表示 comments 表的数据库实体。ParentID 非空时为一级回复。
type Comment struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	VideoID   uuid.UUID
	ParentID  *uuid.UUID
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReactionType 表示点赞/点踩类型。
type ReactionType string

// 互动类型取值。
const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Valid 判断互动类型是否合法。
func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDislike
}

// Reaction 表示 video_reactions / comment_reactions 表中的一行。
// TargetID 为视频或评论主键。
type Reaction struct {
	UserID    uuid.UUID
	TargetID  uuid.UUID
	Type      ReactionType
	CreatedAt time.Time
	UpdatedAt time.Time
}
