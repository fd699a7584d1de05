package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/objectstore"
	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ImageUpload 描述一次图片上传。
type ImageUpload struct {
	UserID      uuid.UUID
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadService 处理视频封面与频道横幅上传：先写入新对象，再替换引用，最后尽力删除旧对象。
type UploadService struct {
	videos  VideoStore
	users   UserStore
	storage ObjectStore
	log     *log.Helper
}

// NewUploadService 构造 UploadService。
func NewUploadService(videos VideoStore, users UserStore, storage ObjectStore, logger log.Logger) *UploadService {
	return &UploadService{videos: videos, users: users, storage: storage, log: log.NewHelper(logger)}
}

// UploadThumbnail 替换调用方视频的封面。
func (s *UploadService) UploadThumbnail(ctx context.Context, videoID uuid.UUID, in ImageUpload) (*vo.Video, error) {
	ext, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	video, err := s.videos.GetOwned(ctx, nil, videoID, in.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("load video: %w", err)
	}

	obj, err := s.put(ctx, objectstore.NewKey("thumbnails", video.ID.String(), ext), in)
	if err != nil {
		return nil, err
	}
	updated, err := s.videos.SetThumbnail(ctx, nil, video.ID, in.UserID, &obj.URL, &obj.Key)
	if err != nil {
		s.storage.DeleteQuietly(ctx, obj.Key)
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("set thumbnail: %w", err)
	}
	s.storage.DeleteQuietly(ctx, derefAll(video.ThumbnailKey)...)
	return vo.NewVideo(updated), nil
}

// UploadBanner 替换调用方的频道横幅。
func (s *UploadService) UploadBanner(ctx context.Context, in ImageUpload) (*vo.User, error) {
	ext, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, nil, in.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	obj, err := s.put(ctx, objectstore.NewKey("banners", user.ID.String(), ext), in)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.UpdateBanner(ctx, nil, user.ID, &obj.URL, &obj.Key)
	if err != nil {
		s.storage.DeleteQuietly(ctx, obj.Key)
		return nil, fmt.Errorf("update banner: %w", err)
	}
	s.storage.DeleteQuietly(ctx, derefAll(user.BannerKey)...)
	out := vo.NewUser(*updated)
	return &out, nil
}

// validate 校验类型与大小，返回对象扩展名。
func (s *UploadService) validate(in ImageUpload) (string, error) {
	mediaType, _, err := mime.ParseMediaType(in.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", badRequest("Only image uploads are allowed!")
	}
	if in.Size <= 0 {
		return "", badRequest("File is empty!")
	}
	if limit := s.storage.MaxUploadBytes(); limit > 0 && in.Size > limit {
		return "", ErrFileTooLarge
	}
	subtype, _, _ := strings.Cut(strings.TrimPrefix(mediaType, "image/"), "+")
	return "." + subtype, nil
}

func (s *UploadService) put(ctx context.Context, key string, in ImageUpload) (objectstore.Object, error) {
	obj, err := s.storage.Put(ctx, key, in.ContentType, in.Body, in.Size)
	if err != nil {
		if errors.Is(err, objectstore.ErrTooLarge) {
			return objectstore.Object{}, ErrFileTooLarge
		}
		s.log.WithContext(ctx).Errorf("store upload failed: key=%s err=%v", key, err)
		return objectstore.Object{}, internalError("Failed to upload file!", err)
	}
	return obj, nil
}
