package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/pagination"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// PlaylistPage 为播放列表分页结果。
type PlaylistPage = pagination.Page[vo.Playlist, time.Time]

// PlaylistService 处理播放列表及其视频，以及观看历史、点赞列表两个内置列表。
type PlaylistService struct {
	playlists PlaylistStore
	videos    VideoStore
	users     UserStore
	feed      VideoFeed
	txManager txmanager.Manager
	log       *log.Helper
}

// NewPlaylistService 构造 PlaylistService。
func NewPlaylistService(playlists PlaylistStore, videos VideoStore, users UserStore, feed VideoFeed, tx txmanager.Manager, logger log.Logger) *PlaylistService {
	return &PlaylistService{
		playlists: playlists,
		videos:    videos,
		users:     users,
		feed:      feed,
		txManager: tx,
		log:       log.NewHelper(logger),
	}
}

// CreatePlaylistInput 描述新建播放列表。
type CreatePlaylistInput struct {
	UserID      uuid.UUID
	Name        string
	Description *string
}

// Create 新建播放列表。
func (s *PlaylistService) Create(ctx context.Context, input CreatePlaylistInput) (*vo.Playlist, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, badRequest("Playlist name is required.")
	}
	playlist, err := s.playlists.Create(ctx, nil, repositories.CreatePlaylistInput{
		UserID:      input.UserID,
		Name:        name,
		Description: input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	return vo.NewPlaylist(playlist), nil
}

// Remove 删除调用方的播放列表。
func (s *PlaylistService) Remove(ctx context.Context, id, userID uuid.UUID) (*vo.Playlist, error) {
	playlist, err := s.playlists.Delete(ctx, nil, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlaylistNotFound) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("remove playlist: %w", err)
	}
	return vo.NewPlaylist(playlist), nil
}

// GetMany 分页返回调用方的播放列表，含视频数与派生封面。
func (s *PlaylistService) GetMany(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (PlaylistPage, error) {
	return s.list(ctx, repositories.PlaylistQuery{UserID: userID, Cursor: cursor, Limit: limit})
}

// GetManyForVideo 同 GetMany，并标注每个列表是否已包含指定视频。
func (s *PlaylistService) GetManyForVideo(ctx context.Context, userID, videoID uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (PlaylistPage, error) {
	return s.list(ctx, repositories.PlaylistQuery{UserID: userID, VideoID: &videoID, Cursor: cursor, Limit: limit})
}

func (s *PlaylistService) list(ctx context.Context, q repositories.PlaylistQuery) (PlaylistPage, error) {
	page, err := s.playlists.List(ctx, nil, q)
	if err != nil {
		return PlaylistPage{}, fmt.Errorf("list playlists: %w", err)
	}
	return vo.MapPage(page, vo.NewPlaylistView), nil
}

// GetOne 返回播放列表及其所有者，任何人可读。
func (s *PlaylistService) GetOne(ctx context.Context, id uuid.UUID) (*vo.Playlist, error) {
	playlist, err := s.playlists.Get(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlaylistNotFound) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	owner, err := s.users.Get(ctx, nil, playlist.UserID)
	if err != nil {
		return nil, fmt.Errorf("get playlist owner: %w", err)
	}
	out := vo.NewPlaylist(playlist)
	user := vo.NewUser(*owner)
	out.User = &user
	return out, nil
}

// GetVideos 分页返回播放列表中的视频。非所有者只能看到公开视频。
func (s *PlaylistService) GetVideos(ctx context.Context, playlistID uuid.UUID, viewer *uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (VideoPage, error) {
	if _, err := s.playlists.Get(ctx, nil, playlistID); err != nil {
		if errors.Is(err, repositories.ErrPlaylistNotFound) {
			return VideoPage{}, ErrPlaylistNotFound
		}
		return VideoPage{}, fmt.Errorf("get playlist: %w", err)
	}
	page, err := s.feed.List(ctx, nil, repositories.FeedQuery{
		Viewer:     viewer,
		PlaylistID: &playlistID,
		Cursor:     cursor,
		Limit:      limit,
	})
	if err != nil {
		return VideoPage{}, fmt.Errorf("list playlist videos: %w", err)
	}
	return vo.MapPage(page, vo.NewVideoCard), nil
}

// AddVideo 把视频加入调用方的播放列表。已存在时返回 CONFLICT。
func (s *PlaylistService) AddVideo(ctx context.Context, userID, playlistID, videoID uuid.UUID) (*vo.PlaylistVideo, error) {
	var result *vo.PlaylistVideo
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if err := s.checkMembershipTargets(txCtx, sess, userID, playlistID, videoID); err != nil {
			return err
		}
		link, err := s.playlists.AddVideo(txCtx, sess, playlistID, videoID)
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrPlaylistVideoExists):
				return ErrPlaylistVideoExists
			case errors.Is(err, repositories.ErrVideoNotFound):
				return ErrVideoNotFound
			}
			return err
		}
		result = vo.NewPlaylistVideo(link)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveVideo 从调用方的播放列表移除视频。不在列表中时返回 NOT_FOUND。
func (s *PlaylistService) RemoveVideo(ctx context.Context, userID, playlistID, videoID uuid.UUID) (*vo.PlaylistVideo, error) {
	var result *vo.PlaylistVideo
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if err := s.checkMembershipTargets(txCtx, sess, userID, playlistID, videoID); err != nil {
			return err
		}
		link, err := s.playlists.RemoveVideo(txCtx, sess, playlistID, videoID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlaylistVideoNotFound) {
				return ErrPlaylistVideoNotFound
			}
			return err
		}
		result = vo.NewPlaylistVideo(link)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkMembershipTargets 校验列表属于调用方且视频存在。
func (s *PlaylistService) checkMembershipTargets(ctx context.Context, sess txmanager.Session, userID, playlistID, videoID uuid.UUID) error {
	if _, err := s.playlists.GetOwned(ctx, sess, playlistID, userID); err != nil {
		if errors.Is(err, repositories.ErrPlaylistNotFound) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("load playlist: %w", err)
	}
	if _, err := s.videos.Get(ctx, sess, videoID); err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("load video: %w", err)
	}
	return nil
}

// GetHistory 返回调用方的观看历史，按最近观看时间排序。
func (s *PlaylistService) GetHistory(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (pagination.Page[vo.WatchedVideo, time.Time], error) {
	page, err := s.feed.ListHistory(ctx, nil, repositories.ActivityQuery{UserID: userID, Cursor: cursor, Limit: limit})
	if err != nil {
		return pagination.Page[vo.WatchedVideo, time.Time]{}, fmt.Errorf("list history: %w", err)
	}
	return vo.MapPage(page, vo.NewWatchedVideo), nil
}

// GetLiked 返回调用方点赞的视频，按点赞时间排序。
func (s *PlaylistService) GetLiked(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor[time.Time], limit int) (pagination.Page[vo.LikedVideo, time.Time], error) {
	page, err := s.feed.ListLiked(ctx, nil, repositories.ActivityQuery{UserID: userID, Cursor: cursor, Limit: limit})
	if err != nil {
		return pagination.Page[vo.LikedVideo, time.Time]{}, fmt.Errorf("list liked videos: %w", err)
	}
	return vo.MapPage(page, vo.NewLikedVideo), nil
}
