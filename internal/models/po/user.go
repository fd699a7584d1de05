package po

import (
	"time"

	"github.com/google/uuid"
)

// User 表示 users 表的数据库实体，由身份平台 webhook 维护。
type User struct {
	ID         uuid.UUID
	ExternalID string // 身份平台用户标识
	Name       string
	ImageURL   string
	BannerURL  *string
	BannerKey  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Category 表示 categories 表的数据库实体。
type Category struct {
	ID          uuid.UUID
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subscription 表示 subscriptions 表的复合主键行。
type Subscription struct {
	ViewerID  uuid.UUID
	CreatorID uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VideoView 表示 video_views 表的复合主键行，每个 (user, video) 至多一行。
type VideoView struct {
	UserID    uuid.UUID
	VideoID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
