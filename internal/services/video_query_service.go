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

// VideoPage 为按更新时间分页的视频卡片列表。
type VideoPage = pagination.Page[vo.VideoCard, time.Time]

// TrendingPage 为按观看人数分页的视频卡片列表。
type TrendingPage = pagination.Page[vo.VideoCard, int64]

// VideoQueryService 提供视频详情与各类信息流查询。
type VideoQueryService struct {
	videos VideoStore
	feed   VideoFeed
	log    *log.Helper
}

// NewVideoQueryService 构造 VideoQueryService。
func NewVideoQueryService(videos VideoStore, feed VideoFeed, logger log.Logger) *VideoQueryService {
	return &VideoQueryService{
		videos: videos,
		feed:   feed,
		log:    log.NewHelper(logger),
	}
}

// FeedInput 描述首页与创作者主页的视频列表参数。
type FeedInput struct {
	CategoryID *uuid.UUID
	UserID     *uuid.UUID
	Viewer     *uuid.UUID
	Cursor     *pagination.Cursor[time.Time]
	Limit      int
}

// SearchInput 描述搜索参数，Query 为空时退化为全量列表。
type SearchInput struct {
	Query      string
	CategoryID *uuid.UUID
	Viewer     *uuid.UUID
	Cursor     *pagination.Cursor[time.Time]
	Limit      int
}

// GetOne 返回视频详情，含计数、调用方互动与订阅状态。私有视频仅所有者可见。
func (s *VideoQueryService) GetOne(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*vo.VideoDetail, error) {
	detail, err := s.videos.GetDetail(ctx, nil, id, viewer)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("get video detail: %w", err)
	}
	return vo.NewVideoDetail(detail), nil
}

// GetMany 返回视频信息流：公开视频，加上调用方自己的私有视频。
func (s *VideoQueryService) GetMany(ctx context.Context, input FeedInput) (VideoPage, error) {
	return s.list(ctx, repositories.FeedQuery{
		Viewer:     input.Viewer,
		CategoryID: input.CategoryID,
		UserID:     input.UserID,
		Cursor:     input.Cursor,
		Limit:      input.Limit,
	})
}

// GetManySubscribed 返回调用方订阅的创作者的视频。
func (s *VideoQueryService) GetManySubscribed(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (VideoPage, error) {
	return s.list(ctx, repositories.FeedQuery{
		SubscriberID: &userID,
		Cursor:       cursor,
		Limit:        limit,
	})
}

// GetManyTrending 返回按观看人数排序的公开视频。
func (s *VideoQueryService) GetManyTrending(ctx context.Context, cursor *pagination.Cursor[int64], limit int) (TrendingPage, error) {
	page, err := s.feed.ListTrending(ctx, nil, repositories.TrendingQuery{Cursor: cursor, Limit: limit})
	if err != nil {
		return TrendingPage{}, fmt.Errorf("list trending videos: %w", err)
	}
	return vo.MapPage(page, vo.NewVideoCard), nil
}

// Search 按标题或描述模糊匹配视频。
func (s *VideoQueryService) Search(ctx context.Context, input SearchInput) (VideoPage, error) {
	return s.list(ctx, repositories.FeedQuery{
		Viewer:     input.Viewer,
		CategoryID: input.CategoryID,
		Search:     input.Query,
		Cursor:     input.Cursor,
		Limit:      input.Limit,
	})
}

// Suggestions 返回与指定视频同分类的其他视频，可见性与信息流一致。视频无分类时不按分类过滤。
func (s *VideoQueryService) Suggestions(ctx context.Context, videoID uuid.UUID, viewer *uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (VideoPage, error) {
	video, err := s.videos.Get(ctx, nil, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return VideoPage{}, ErrVideoNotFound
		}
		return VideoPage{}, fmt.Errorf("load video: %w", err)
	}
	return s.list(ctx, repositories.FeedQuery{
		Viewer:     viewer,
		CategoryID: video.CategoryID,
		ExcludeID:  &video.ID,
		Cursor:     cursor,
		Limit:      limit,
	})
}

func (s *VideoQueryService) list(ctx context.Context, q repositories.FeedQuery) (VideoPage, error) {
	page, err := s.feed.List(ctx, nil, q)
	if err != nil {
		return VideoPage{}, fmt.Errorf("list videos: %w", err)
	}
	return vo.MapPage(page, vo.NewVideoCard), nil
}
