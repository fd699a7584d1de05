package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/videoprovider"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// 新建视频的默认标题。
const defaultVideoTitle = "Untitled"

// VideoService 编排视频生命周期：上传初始化、元数据更新、删除与资产同步。
type VideoService struct {
	videos   VideoStore
	provider VideoProvider
	storage  ObjectStore
	assets   *assetSyncer
	log      *log.Helper
}

// NewVideoService 构造 VideoService。
func NewVideoService(videos VideoStore, provider VideoProvider, storage ObjectStore, logger log.Logger) *VideoService {
	helper := log.NewHelper(logger)
	return &VideoService{
		videos:   videos,
		provider: provider,
		storage:  storage,
		assets:   &assetSyncer{videos: videos, provider: provider, storage: storage, log: helper},
		log:      helper,
	}
}

// Create 向视频平台申请直传地址，并创建状态为 waiting 的视频。
func (s *VideoService) Create(ctx context.Context, userID uuid.UUID) (*vo.VideoUpload, error) {
	upload, err := s.provider.CreateUpload(ctx, userID.String())
	if err != nil || upload.ID == "" || upload.URL == "" {
		s.log.WithContext(ctx).Errorf("create upload failed: user=%s err=%v", userID, err)
		return nil, internalError("Failed to upload the video!", err)
	}

	video, err := s.videos.Create(ctx, nil, repositories.CreateVideoInput{
		UserID:   userID,
		Title:    defaultVideoTitle,
		UploadID: upload.ID,
		Status:   po.VideoStatusWaiting,
	})
	if err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	s.log.WithContext(ctx).Infof("video created: id=%s upload=%s", video.ID, upload.ID)
	return &vo.VideoUpload{URL: upload.URL, Video: vo.NewVideo(video)}, nil
}

// UpdateVideoInput 描述所有者可修改的字段，nil 表示保持不变。
type UpdateVideoInput struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       *string
	Description *string
	CategoryID  *uuid.UUID
	Visibility  *po.Visibility
}

// Update 修改所有者的视频元数据。
func (s *VideoService) Update(ctx context.Context, input UpdateVideoInput) (*vo.Video, error) {
	if input.Visibility != nil && !input.Visibility.Valid() {
		return nil, badRequest("Invalid visibility!")
	}
	video, err := s.videos.Update(ctx, nil, repositories.UpdateVideoInput{
		ID:          input.ID,
		UserID:      input.UserID,
		Title:       input.Title,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Visibility:  input.Visibility,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrVideoNotFound):
			return nil, ErrVideoNotFound
		case errors.Is(err, repositories.ErrCategoryNotFound):
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update video: %w", err)
	}
	return vo.NewVideo(video), nil
}

// Remove 删除所有者的视频，随后尽力清理平台资产与存储中的图片。
// 远端清理失败只记录日志，不影响本地删除结果。
func (s *VideoService) Remove(ctx context.Context, id, userID uuid.UUID) (*vo.Video, error) {
	video, err := s.videos.Delete(ctx, nil, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("delete video: %w", err)
	}

	if video.AssetID != nil {
		if err := s.provider.DeleteAsset(ctx, *video.AssetID); err != nil && !errors.Is(err, videoprovider.ErrDisabled) {
			s.log.WithContext(ctx).Warnf("delete provider asset failed: video=%s asset=%s err=%v", video.ID, *video.AssetID, err)
		}
	}
	s.storage.DeleteQuietly(ctx, derefAll(video.ThumbnailKey, video.PreviewKey)...)
	return vo.NewVideo(video), nil
}

// Revalidate 重新从平台拉取资产状态，用于回调丢失时的手动恢复。
func (s *VideoService) Revalidate(ctx context.Context, id, userID uuid.UUID) (*vo.Video, error) {
	video, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if video.UploadID == nil || *video.UploadID == "" {
		return nil, badRequest("Upload id not found!")
	}
	updated, err := s.assets.syncByUpload(ctx, *video.UploadID)
	if err != nil {
		return nil, err
	}
	return vo.NewVideo(updated), nil
}

// RestoreThumbnail 丢弃自定义封面，重新导入平台生成的缩略图。
func (s *VideoService) RestoreThumbnail(ctx context.Context, id, userID uuid.UUID) (*vo.Video, error) {
	video, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if video.ThumbnailKey != nil {
		s.storage.DeleteQuietly(ctx, *video.ThumbnailKey)
		if video, err = s.videos.SetThumbnail(ctx, nil, id, userID, nil, nil); err != nil {
			return nil, fmt.Errorf("clear thumbnail: %w", err)
		}
	}
	if video.PlaybackID == nil || *video.PlaybackID == "" {
		return nil, badRequest("Playback id not found!")
	}

	thumb, err := s.assets.importImage(ctx, video, *video.PlaybackID, videoprovider.ImageThumbnail)
	if err != nil {
		s.log.WithContext(ctx).Errorf("import thumbnail failed: video=%s err=%v", id, err)
		return nil, internalError("Failed to upload thumbnail!", err)
	}
	updated, err := s.videos.SetThumbnail(ctx, nil, id, userID, &thumb.URL, &thumb.Key)
	if err != nil {
		s.storage.DeleteQuietly(ctx, thumb.Key)
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("set thumbnail: %w", err)
	}
	return vo.NewVideo(updated), nil
}

func (s *VideoService) getOwned(ctx context.Context, id, userID uuid.UUID) (*po.Video, error) {
	video, err := s.videos.GetOwned(ctx, nil, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("load video: %w", err)
	}
	return video, nil
}

func derefAll(values ...*string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != nil && *v != "" {
			out = append(out, *v)
		}
	}
	return out
}
