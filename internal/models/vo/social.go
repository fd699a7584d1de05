package vo

import (
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/google/uuid"
)

// User 表示对外公开的用户资料。身份平台标识不对外暴露。
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	BannerURL *string   `json:"bannerUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser 从持久化实体构造 VO。
func NewUser(u po.User) User {
	return User{ID: u.ID, Name: u.Name, ImageURL: u.ImageURL, BannerURL: u.BannerURL, CreatedAt: u.CreatedAt}
}

// UserProfile 表示用户主页。
type UserProfile struct {
	User
	SubscriberCount  int64 `json:"subscriberCount"`
	VideoCount       int64 `json:"videoCount"`
	ViewerSubscribed bool  `json:"viewerSubscribed"`
}

// NewUserProfile 从主页查询结果构造 VO。
func NewUserProfile(p *po.UserProfileView) *UserProfile {
	if p == nil {
		return nil
	}
	return &UserProfile{
		User:             NewUser(p.User),
		SubscriberCount:  p.SubscriberCount,
		VideoCount:       p.VideoCount,
		ViewerSubscribed: p.ViewerSubscribed,
	}
}

// Category 表示视频分类。
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
}

// NewCategory 从持久化实体构造 VO。
func NewCategory(c po.Category) Category {
	return Category{ID: c.ID, Name: c.Name, Description: c.Description}
}

// Comment 表示评论条目。
type Comment struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"userId"`
	VideoID        uuid.UUID  `json:"videoId"`
	ParentID       *uuid.UUID `json:"parentId"`
	Value          string     `json:"value"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	User           *User      `json:"user,omitempty"`
	LikeCount      int64      `json:"likeCount"`
	DislikeCount   int64      `json:"dislikeCount"`
	ReplyCount     int64      `json:"replyCount"`
	ViewerReaction *string    `json:"viewerReaction"`
}

// NewComment 从持久化实体构造 VO，不含聚合字段。
func NewComment(c *po.Comment) *Comment {
	if c == nil {
		return nil
	}
	return &Comment{
		ID:        c.ID,
		UserID:    c.UserID,
		VideoID:   c.VideoID,
		ParentID:  c.ParentID,
		Value:     c.Value,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewCommentView 从列表行构造 VO。
func NewCommentView(c po.CommentView) Comment {
	item := *NewComment(&c.Comment)
	author := NewUser(c.Author)
	item.User = &author
	item.LikeCount = c.LikeCount
	item.DislikeCount = c.DislikeCount
	item.ReplyCount = c.ReplyCount
	item.ViewerReaction = reactionString(c.ViewerReaction)
	return item
}

// CommentPage 表示评论分页结果，TotalCount 为视频下全部评论数。
type CommentPage struct {
	pagination.Page[Comment, time.Time]
	TotalCount int64 `json:"totalCount"`
}

// Playlist 表示播放列表。
type Playlist struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	User          *User     `json:"user,omitempty"`
	VideoCount    int64     `json:"videoCount"`
	ThumbnailURL  *string   `json:"thumbnailUrl"`
	ContainsVideo bool      `json:"containsVideo"`
}

// NewPlaylist 从持久化实体构造 VO。
func NewPlaylist(p *po.Playlist) *Playlist {
	if p == nil {
		return nil
	}
	return &Playlist{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewPlaylistView 从列表行构造 VO。
func NewPlaylistView(p po.PlaylistView) Playlist {
	item := *NewPlaylist(&p.Playlist)
	owner := NewUser(p.Owner)
	item.User = &owner
	item.VideoCount = p.VideoCount
	item.ThumbnailURL = p.ThumbnailURL
	item.ContainsVideo = p.ContainsVideo
	return item
}

// PlaylistVideo 表示播放列表与视频的关联。
type PlaylistVideo struct {
	PlaylistID uuid.UUID `json:"playlistId"`
	VideoID    uuid.UUID `json:"videoId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewPlaylistVideo 从关联行构造 VO。
func NewPlaylistVideo(l *po.PlaylistVideo) *PlaylistVideo {
	if l == nil {
		return nil
	}
	return &PlaylistVideo{PlaylistID: l.PlaylistID, VideoID: l.VideoID, CreatedAt: l.CreatedAt}
}

// SubscribedCreator 表示订阅列表条目。
type SubscribedCreator struct {
	CreatorID       uuid.UUID `json:"creatorId"`
	SubscribedAt    time.Time `json:"subscribedAt"`
	User            User      `json:"user"`
	SubscriberCount int64     `json:"subscriberCount"`
}

// NewSubscribedCreator 从订阅列表行构造 VO。
func NewSubscribedCreator(s po.SubscribedCreatorView) SubscribedCreator {
	return SubscribedCreator{
		CreatorID:       s.CreatorID,
		SubscribedAt:    s.CreatedAt,
		User:            NewUser(s.Creator),
		SubscriberCount: s.SubscriberCount,
	}
}

// Subscription 表示订阅操作结果。
type Subscription struct {
	ViewerID   uuid.UUID `json:"viewerId"`
	CreatorID  uuid.UUID `json:"creatorId"`
	Subscribed bool      `json:"subscribed"`
}

// ReactionState 表示互动切换后的服务端状态。Reaction 为空表示 NONE。
type ReactionState struct {
	TargetID uuid.UUID `json:"targetId"`
	Reaction *string   `json:"reaction"`
}

// NewReactionState 构造互动状态 VO。
func NewReactionState(targetID uuid.UUID, reaction *po.ReactionType) ReactionState {
	return ReactionState{TargetID: targetID, Reaction: reactionString(reaction)}
}
