package services

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/objectstore"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/videoprovider"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
)

// assetSyncer 负责把平台侧资产状态落到视频行：就绪时导入缩略图与预览图。
type assetSyncer struct {
	videos   VideoStore
	provider VideoProvider
	storage  ObjectStore
	log      *log.Helper
}

// syncByUpload 按上传 ID 从平台拉取最新状态。已就绪的视频原样返回。
func (a *assetSyncer) syncByUpload(ctx context.Context, uploadID string) (*po.Video, error) {
	video, err := a.videos.GetByUploadID(ctx, nil, uploadID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("load video by upload: %w", err)
	}
	if video.Status == po.VideoStatusReady {
		return video, nil
	}

	upload, err := a.provider.GetUpload(ctx, uploadID)
	if err != nil || upload.AssetID == "" {
		a.log.WithContext(ctx).Warnf("upload lookup failed: upload=%s err=%v", uploadID, err)
		return nil, badRequest("Upload not found!")
	}
	asset, err := a.provider.GetAsset(ctx, upload.AssetID)
	if err != nil {
		a.log.WithContext(ctx).Warnf("asset lookup failed: asset=%s err=%v", upload.AssetID, err)
		return nil, badRequest("Asset not found!")
	}
	return a.applyAsset(ctx, video, uploadID, asset)
}

// applyAsset 写入资产状态；就绪状态额外导入平台生成的图片。
func (a *assetSyncer) applyAsset(ctx context.Context, video *po.Video, uploadID string, asset videoprovider.Asset) (*po.Video, error) {
	status := po.ParseVideoStatus(asset.Status)
	duration := int32(asset.DurationMillis())
	input := repositories.UpdateAssetInput{
		UploadID:   uploadID,
		AssetID:    stringPtr(asset.ID),
		Status:     &status,
		DurationMS: &duration,
	}
	if playbackID := asset.PlaybackID(); playbackID != "" {
		input.PlaybackID = &playbackID
		if status == po.VideoStatusReady {
			if err := a.importImages(ctx, video, playbackID, &input); err != nil {
				return nil, err
			}
		}
	}

	updated, err := a.videos.UpdateAsset(ctx, nil, input)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("update video asset: %w", err)
	}
	return updated, nil
}

// importImages 把平台的缩略图与动图预览转存到对象存储。自定义缩略图不会被覆盖。
func (a *assetSyncer) importImages(ctx context.Context, video *po.Video, playbackID string, input *repositories.UpdateAssetInput) error {
	preview, err := a.importImage(ctx, video, playbackID, videoprovider.ImagePreview)
	if err != nil {
		return internalError("Failed to upload preview!", err)
	}
	input.PreviewURL, input.PreviewKey = &preview.URL, &preview.Key
	stale := []string{}
	if video.PreviewKey != nil {
		stale = append(stale, *video.PreviewKey)
	}

	if video.ThumbnailKey == nil {
		thumb, err := a.importImage(ctx, video, playbackID, videoprovider.ImageThumbnail)
		if err != nil {
			a.storage.DeleteQuietly(ctx, preview.Key)
			return internalError("Failed to upload thumbnail!", err)
		}
		input.ThumbnailURL, input.ThumbnailKey = &thumb.URL, &thumb.Key
	}
	a.storage.DeleteQuietly(ctx, stale...)
	return nil
}

func (a *assetSyncer) importImage(ctx context.Context, video *po.Video, playbackID, name string) (objectstore.Object, error) {
	data, contentType, err := a.provider.FetchImage(ctx, playbackID, name)
	if err != nil {
		return objectstore.Object{}, err
	}
	prefix := "thumbnails"
	if name == videoprovider.ImagePreview {
		prefix = "previews"
	}
	key := objectstore.NewKey(prefix, video.ID.String(), path.Ext(name))
	return a.storage.PutBytes(ctx, key, contentType, data)
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
