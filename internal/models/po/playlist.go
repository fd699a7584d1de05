package po

import (
	"time"

	"github.com/google/uuid"
)

// Playlist 表示 playlists 表的数据库实体。
type Playlist struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlaylistVideo 表示 playlist_videos 关联表中的一行。
type PlaylistVideo struct {
	PlaylistID uuid.UUID
	VideoID    uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
