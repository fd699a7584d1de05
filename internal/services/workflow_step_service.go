package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/llm"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/objectstore"
	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
)

// ErrWorkflowSkipped 表示工作流无法继续且重试无意义，例如视频已删除或没有可用的 API Key。
var ErrWorkflowSkipped = errors.New("workflow skipped")

// WorkflowStepService 依次执行 get-video、get-transcript、generate、update-video 四个步骤。
// 每步都可安全重试：重复执行只会覆盖为最新的生成结果。
type WorkflowStepService struct {
	videos      VideoStore
	transcripts TranscriptSource
	generator   TextGenerator
	storage     ObjectStore
	settings    *AISettingsService
	log         *log.Helper
}

// NewWorkflowStepService 构造 WorkflowStepService。
func NewWorkflowStepService(
	videos VideoStore,
	transcripts TranscriptSource,
	generator TextGenerator,
	storage ObjectStore,
	settings *AISettingsService,
	logger log.Logger,
) *WorkflowStepService {
	return &WorkflowStepService{
		videos:      videos,
		transcripts: transcripts,
		generator:   generator,
		storage:     storage,
		settings:    settings,
		log:         log.NewHelper(logger),
	}
}

// Execute 执行一次工作流。返回包装了 ErrWorkflowSkipped 的错误时调用方应确认消息而不是重试。
func (s *WorkflowStepService) Execute(ctx context.Context, evt *outboxevents.WorkflowRequested) error {
	if evt == nil {
		return fmt.Errorf("%w: nil event", ErrWorkflowSkipped)
	}
	kind := evt.Kind()
	logger := s.log.WithContext(ctx)

	video, err := s.getVideo(ctx, evt)
	if err != nil {
		return err
	}

	apiKey := s.settings.ResolveAPIKey(evt.APIKey)
	if apiKey == "" {
		return fmt.Errorf("%w: no api key for user %s", ErrWorkflowSkipped, evt.UserID)
	}

	switch kind {
	case outboxevents.KindTitleRequested, outboxevents.KindDescriptionRequested:
		transcript, err := s.getTranscript(ctx, video)
		if err != nil {
			return err
		}
		system := llm.TitleSystemPrompt
		if kind == outboxevents.KindDescriptionRequested {
			system = llm.DescriptionSystemPrompt
		}
		text, err := s.generator.GenerateText(ctx, apiKey, system, transcript)
		if err != nil {
			return s.generateFailed(kind, err)
		}
		if err := s.updateText(ctx, video, kind, text); err != nil {
			return err
		}
	case outboxevents.KindThumbnailRequested:
		image, err := s.generator.GenerateImage(ctx, apiKey, evt.Prompt)
		if err != nil {
			return s.generateFailed(kind, err)
		}
		if err := s.updateThumbnail(ctx, video, image); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown workflow %q", ErrWorkflowSkipped, evt.Workflow)
	}

	logger.Infof("workflow finished: kind=%s video=%s run=%s", kind, video.ID, evt.EventID)
	return nil
}

// getVideo 读取属于发起人的视频。
func (s *WorkflowStepService) getVideo(ctx context.Context, evt *outboxevents.WorkflowRequested) (*po.Video, error) {
	video, err := s.videos.GetOwned(ctx, nil, evt.VideoID, evt.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, fmt.Errorf("%w: video %s not found", ErrWorkflowSkipped, evt.VideoID)
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// getTranscript 下载平台自动生成的字幕文本。
func (s *WorkflowStepService) getTranscript(ctx context.Context, video *po.Video) (string, error) {
	if video.PlaybackID == nil || video.TrackID == nil {
		return "", fmt.Errorf("%w: video %s has no subtitle track", ErrWorkflowSkipped, video.ID)
	}
	text, err := s.transcripts.FetchTranscript(ctx, *video.PlaybackID, *video.TrackID)
	if err != nil {
		return "", fmt.Errorf("get transcript: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty transcript for video %s", ErrWorkflowSkipped, video.ID)
	}
	return text, nil
}

func (s *WorkflowStepService) generateFailed(kind outboxevents.Kind, err error) error {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return fmt.Errorf("%w: %v", ErrWorkflowSkipped, err)
	}
	return fmt.Errorf("generate %s: %w", kind, err)
}

func (s *WorkflowStepService) updateText(ctx context.Context, video *po.Video, kind outboxevents.Kind, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("generate %s: %w", kind, llm.ErrEmptyResponse)
	}
	input := repositories.UpdateVideoInput{ID: video.ID, UserID: video.UserID}
	if kind == outboxevents.KindTitleRequested {
		input.Title = &text
	} else {
		input.Description = &text
	}
	if _, err := s.videos.Update(ctx, nil, input); err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return fmt.Errorf("%w: video %s removed during workflow", ErrWorkflowSkipped, video.ID)
		}
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// updateThumbnail 上传生成的图片并替换旧封面，旧对象在引用切换后删除。
func (s *WorkflowStepService) updateThumbnail(ctx context.Context, video *po.Video, image []byte) error {
	obj, err := s.storage.PutBytes(ctx, objectstore.NewKey("thumbnails", video.ID.String(), ".png"), "image/png", image)
	if err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}
	if _, err := s.videos.SetThumbnail(ctx, nil, video.ID, video.UserID, &obj.URL, &obj.Key); err != nil {
		s.storage.DeleteQuietly(ctx, obj.Key)
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return fmt.Errorf("%w: video %s removed during workflow", ErrWorkflowSkipped, video.ID)
		}
		return fmt.Errorf("set thumbnail: %w", err)
	}
	s.storage.DeleteQuietly(ctx, derefAll(video.ThumbnailKey)...)
	return nil
}
