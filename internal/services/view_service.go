package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// VideoViewResult 描述一次观看记录。
type VideoViewResult struct {
	UserID    uuid.UUID `json:"userId"`
	VideoID   uuid.UUID `json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ViewService 记录观看。同一用户重复观看只刷新时间戳。
type ViewService struct {
	views ViewStore
	log   *log.Helper
}

// NewViewService 构造 ViewService。
func NewViewService(views ViewStore, logger log.Logger) *ViewService {
	return &ViewService{views: views, log: log.NewHelper(logger)}
}

// Create 记录调用方观看了视频。
func (s *ViewService) Create(ctx context.Context, userID, videoID uuid.UUID) (*VideoViewResult, error) {
	view, err := s.views.Upsert(ctx, nil, userID, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("record view: %w", err)
	}
	return &VideoViewResult{
		UserID:    view.UserID,
		VideoID:   view.VideoID,
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	}, nil
}
