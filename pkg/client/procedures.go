package client

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReactionResult 为互动切换后服务端的状态。Reaction 为 nil 表示未互动。
type ReactionResult struct {
	TargetID uuid.UUID `json:"targetId"`
	Reaction *string   `json:"reaction"`
}

// Subscription 为订阅操作结果。
type Subscription struct {
	ViewerID   uuid.UUID `json:"viewerId"`
	CreatorID  uuid.UUID `json:"creatorId"`
	Subscribed bool      `json:"subscribed"`
}

// ViewResult 为观看记录。重复观看时 UpdatedAt 前进而 CreatedAt 不变。
type ViewResult struct {
	UserID    uuid.UUID `json:"userId"`
	VideoID   uuid.UUID `json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Do 调用 procedure 并返回类型化结果。
func Do[Out any](ctx context.Context, c *Client, procedure string, in any) (Out, error) {
	var out Out
	err := c.Call(ctx, procedure, in, &out)
	return out, err
}

// LikeVideo 切换视频的点赞。
func (c *Client) LikeVideo(ctx context.Context, videoID uuid.UUID) (ReactionResult, error) {
	return Do[ReactionResult](ctx, c, "videoReactions.like", map[string]uuid.UUID{"videoId": videoID})
}

// DislikeVideo 切换视频的点踩。
func (c *Client) DislikeVideo(ctx context.Context, videoID uuid.UUID) (ReactionResult, error) {
	return Do[ReactionResult](ctx, c, "videoReactions.dislike", map[string]uuid.UUID{"videoId": videoID})
}

// LikeComment 切换评论的点赞。
func (c *Client) LikeComment(ctx context.Context, commentID uuid.UUID) (ReactionResult, error) {
	return Do[ReactionResult](ctx, c, "commentReactions.like", map[string]uuid.UUID{"commentId": commentID})
}

// DislikeComment 切换评论的点踩。
func (c *Client) DislikeComment(ctx context.Context, commentID uuid.UUID) (ReactionResult, error) {
	return Do[ReactionResult](ctx, c, "commentReactions.dislike", map[string]uuid.UUID{"commentId": commentID})
}

// Subscribe 订阅创作者。
func (c *Client) Subscribe(ctx context.Context, creatorID uuid.UUID) (Subscription, error) {
	return Do[Subscription](ctx, c, "subscriptions.create", map[string]uuid.UUID{"userId": creatorID})
}

// Unsubscribe 取消订阅创作者。
func (c *Client) Unsubscribe(ctx context.Context, creatorID uuid.UUID) (Subscription, error) {
	return Do[Subscription](ctx, c, "subscriptions.remove", map[string]uuid.UUID{"userId": creatorID})
}

// RecordView 记录一次观看。
func (c *Client) RecordView(ctx context.Context, videoID uuid.UUID) (ViewResult, error) {
	return Do[ViewResult](ctx, c, "videoViews.create", map[string]uuid.UUID{"videoId": videoID})
}
