package po

import "time"

// VideoStats 聚合视频的实时计数，由相关子查询逐行计算，不做反范式存储。
type VideoStats struct {
	ViewCount    int64
	LikeCount    int64
	DislikeCount int64
	CommentCount int64
}

// VideoCardView 表示列表查询返回的一行：视频本身、作者与计数。
type VideoCardView struct {
	Video
	Owner User
	Stats VideoStats
}

// VideoDetailView 表示详情查询结果，额外携带观看者相关字段与作者订阅数。
type VideoDetailView struct {
	VideoCardView
	ViewerReaction       *ReactionType
	OwnerSubscriberCount int64
	ViewerSubscribed     bool
}

// WatchedVideoView 表示观看历史中的一行，ViewedAt 为最近一次观看时间。
type WatchedVideoView struct {
	VideoCardView
	ViewedAt time.Time
}

// LikedVideoView 表示点赞列表中的一行，LikedAt 为点赞时间。
type LikedVideoView struct {
	VideoCardView
	LikedAt time.Time
}

// CommentView 表示评论列表中的一行。
type CommentView struct {
	Comment
	Author         User
	LikeCount      int64
	DislikeCount   int64
	ReplyCount     int64
	ViewerReaction *ReactionType
}

// PlaylistView 表示播放列表卡片：视频数量与派生封面。
type PlaylistView struct {
	Playlist
	Owner         User
	VideoCount    int64
	ThumbnailURL  *string
	ContainsVideo bool
}

// UserProfileView 表示用户主页数据。
type UserProfileView struct {
	User
	SubscriberCount  int64
	VideoCount       int64
	ViewerSubscribed bool
}

// SubscribedCreatorView 表示订阅列表中的一行。
type SubscribedCreatorView struct {
	Subscription
	Creator         User
	SubscriberCount int64
}
