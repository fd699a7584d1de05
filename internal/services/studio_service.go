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

// StudioService 为创作者工作台提供自己的视频列表与详情，私有视频同样可见。
type StudioService struct {
	videos VideoStore
	feed   VideoFeed
	log    *log.Helper
}

// NewStudioService 构造 StudioService。
func NewStudioService(videos VideoStore, feed VideoFeed, logger log.Logger) *StudioService {
	return &StudioService{videos: videos, feed: feed, log: log.NewHelper(logger)}
}

// GetMany 分页返回调用方的全部视频，含评论、点赞与观看计数。
func (s *StudioService) GetMany(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (VideoPage, error) {
	page, err := s.feed.List(ctx, nil, repositories.FeedQuery{
		Viewer: &userID,
		UserID: &userID,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return VideoPage{}, fmt.Errorf("list studio videos: %w", err)
	}
	return vo.MapPage(page, vo.NewVideoCard), nil
}

// GetOne 返回调用方自己的视频。
func (s *StudioService) GetOne(ctx context.Context, id, userID uuid.UUID) (*vo.Video, error) {
	video, err := s.videos.GetOwned(ctx, nil, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("get studio video: %w", err)
	}
	return vo.NewVideo(video), nil
}
