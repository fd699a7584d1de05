package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/pagination"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// SubscriptionService 处理订阅关系。订阅与取消订阅均幂等。
type SubscriptionService struct {
	subscriptions SubscriptionStore
	log           *log.Helper
}

// NewSubscriptionService 构造 SubscriptionService。
func NewSubscriptionService(subscriptions SubscriptionStore, logger log.Logger) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		log:           log.NewHelper(logger),
	}
}

// Create 订阅创作者。不能订阅自己。
func (s *SubscriptionService) Create(ctx context.Context, viewerID, creatorID uuid.UUID) (*vo.Subscription, error) {
	if viewerID == creatorID {
		return nil, badRequest("You cannot subscribe to yourself!")
	}
	if _, err := s.subscriptions.Insert(ctx, nil, viewerID, creatorID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return &vo.Subscription{ViewerID: viewerID, CreatorID: creatorID, Subscribed: true}, nil
}

// Remove 取消订阅。不能对自己取消订阅。
func (s *SubscriptionService) Remove(ctx context.Context, viewerID, creatorID uuid.UUID) (*vo.Subscription, error) {
	if viewerID == creatorID {
		return nil, badRequest("You cannot unsubscribe to yourself!")
	}
	if _, err := s.subscriptions.Delete(ctx, nil, viewerID, creatorID); err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}
	return &vo.Subscription{ViewerID: viewerID, CreatorID: creatorID, Subscribed: false}, nil
}

// GetMany 分页返回调用方订阅的创作者。
func (s *SubscriptionService) GetMany(ctx context.Context, viewerID uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (pagination.Page[vo.SubscribedCreator, time.Time], error) {
	page, err := s.subscriptions.ListCreators(ctx, nil, repositories.CreatorQuery{
		ViewerID: viewerID,
		Cursor:   cursor,
		Limit:    limit,
	})
	if err != nil {
		return pagination.Page[vo.SubscribedCreator, time.Time]{}, fmt.Errorf("list subscriptions: %w", err)
	}
	return vo.MapPage(page, vo.NewSubscribedCreator), nil
}
