package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/videoprovider"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// 视频平台回调事件类型。
const (
	VideoEventAssetCreated    = "video.asset.created"
	VideoEventAssetReady      = "video.asset.ready"
	VideoEventAssetErrored    = "video.asset.errored"
	VideoEventAssetDeleted    = "video.asset.deleted"
	VideoEventAssetTrackReady = "video.asset.track.ready"
)

// VideoEvent 为视频平台回调的信封。
type VideoEvent struct {
	Type string         `json:"type"`
	Data VideoEventData `json:"data"`
}

// VideoEventData 为回调数据。资产事件中 ID 为资产 ID；轨道事件中 ID 为轨道 ID，AssetID 为所属资产。
type VideoEventData struct {
	videoprovider.Asset
	AssetID string `json:"asset_id"`
}

// VideoEventService 把视频平台回调落到视频行上。
type VideoEventService struct {
	videos VideoStore
	assets *assetSyncer
	log    *log.Helper
}

// NewVideoEventService 构造 VideoEventService。
func NewVideoEventService(videos VideoStore, provider VideoProvider, storage ObjectStore, logger log.Logger) *VideoEventService {
	helper := log.NewHelper(logger)
	return &VideoEventService{
		videos: videos,
		assets: &assetSyncer{videos: videos, provider: provider, storage: storage, log: helper},
		log:    helper,
	}
}

var (
	errMissingUploadID = kerrors.NotFound(ReasonNotFound, "No upload id found!")
	errMissingAssetID  = kerrors.NotFound(ReasonNotFound, "No asset id found!")
)

// Handle 处理一次回调。未知事件与找不到对应视频的事件只记录日志。
func (s *VideoEventService) Handle(ctx context.Context, evt VideoEvent) error {
	data := evt.Data
	var err error
	switch evt.Type {
	case VideoEventAssetCreated, VideoEventAssetErrored:
		if data.UploadID == "" {
			return errMissingUploadID
		}
		status := po.ParseVideoStatus(data.Status)
		input := repositories.UpdateAssetInput{UploadID: data.UploadID, Status: &status}
		if evt.Type == VideoEventAssetCreated {
			input.AssetID = stringPtr(data.ID)
		}
		_, err = s.videos.UpdateAsset(ctx, nil, input)
	case VideoEventAssetReady:
		if data.UploadID == "" {
			return errMissingUploadID
		}
		err = s.applyReady(ctx, data.Asset)
	case VideoEventAssetDeleted:
		if data.UploadID == "" {
			return errMissingUploadID
		}
		var video *po.Video
		if video, err = s.videos.DeleteByUploadID(ctx, nil, data.UploadID); err == nil {
			s.assets.storage.DeleteQuietly(ctx, derefAll(video.ThumbnailKey, video.PreviewKey)...)
		}
	case VideoEventAssetTrackReady:
		if data.AssetID == "" {
			return errMissingAssetID
		}
		_, err = s.videos.UpdateTrack(ctx, nil, data.AssetID, data.ID, data.Status)
	default:
		s.log.WithContext(ctx).Warnf("unhandled video event: type=%s", evt.Type)
		return nil
	}

	if errors.Is(err, repositories.ErrVideoNotFound) || errors.Is(err, ErrVideoNotFound) {
		s.log.WithContext(ctx).Warnf("video event without matching video: type=%s upload=%s asset=%s", evt.Type, data.UploadID, data.AssetID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("handle %s: %w", evt.Type, err)
	}
	s.log.WithContext(ctx).Infof("video event applied: type=%s upload=%s", evt.Type, data.UploadID)
	return nil
}

// applyReady 使用回调携带的资产数据完成就绪转换，已就绪的视频不重复导入图片。
func (s *VideoEventService) applyReady(ctx context.Context, asset videoprovider.Asset) error {
	video, err := s.videos.GetByUploadID(ctx, nil, asset.UploadID)
	if err != nil {
		return err
	}
	if video.Status == po.VideoStatusReady {
		return nil
	}
	_, err = s.assets.applyAsset(ctx, video, asset.UploadID, asset)
	return err
}
