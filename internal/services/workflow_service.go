package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// 缩略图提示词的最短长度。
const minThumbnailPromptLength = 10

// WorkflowService 触发 AI 生成工作流：在同一事务内确认视频归属并写入 outbox，
// 由后台任务发布并执行各步骤。
type WorkflowService struct {
	videos    VideoStore
	outbox    OutboxEnqueuer
	txManager txmanager.Manager
	log       *log.Helper
	metrics   *triggerRecorder
}

// NewWorkflowService 构造 WorkflowService。
func NewWorkflowService(videos VideoStore, outbox OutboxEnqueuer, tx txmanager.Manager, logger log.Logger) *WorkflowService {
	return &WorkflowService{
		videos:    videos,
		outbox:    outbox,
		txManager: tx,
		log:       log.NewHelper(logger),
		metrics:   newTriggerRecorder(),
	}
}

// GenerateTitle 触发标题生成。encryptedAPIKey 为 Cookie 中的密文，原样随事件传递。
func (s *WorkflowService) GenerateTitle(ctx context.Context, userID, videoID uuid.UUID, encryptedAPIKey string) (*vo.WorkflowRun, error) {
	return s.trigger(ctx, outboxevents.WorkflowRequest{
		Kind:    outboxevents.KindTitleRequested,
		UserID:  userID,
		VideoID: videoID,
		APIKey:  encryptedAPIKey,
	})
}

// GenerateDescription 触发描述生成。
func (s *WorkflowService) GenerateDescription(ctx context.Context, userID, videoID uuid.UUID, encryptedAPIKey string) (*vo.WorkflowRun, error) {
	return s.trigger(ctx, outboxevents.WorkflowRequest{
		Kind:    outboxevents.KindDescriptionRequested,
		UserID:  userID,
		VideoID: videoID,
		APIKey:  encryptedAPIKey,
	})
}

// GenerateThumbnail 按提示词触发缩略图生成，提示词至少 10 个字符。
func (s *WorkflowService) GenerateThumbnail(ctx context.Context, userID, videoID uuid.UUID, prompt, encryptedAPIKey string) (*vo.WorkflowRun, error) {
	prompt = strings.TrimSpace(prompt)
	if len([]rune(prompt)) < minThumbnailPromptLength {
		return nil, badRequest("Prompt must be at least 10 characters long!")
	}
	return s.trigger(ctx, outboxevents.WorkflowRequest{
		Kind:    outboxevents.KindThumbnailRequested,
		UserID:  userID,
		VideoID: videoID,
		Prompt:  prompt,
		APIKey:  encryptedAPIKey,
	})
}

func (s *WorkflowService) trigger(ctx context.Context, req outboxevents.WorkflowRequest) (*vo.WorkflowRun, error) {
	var (
		eventID    = uuid.New()
		started    = time.Now()
		occurredAt = started.UTC()
		eventType  = req.Kind.String()
	)
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if _, err := s.videos.GetOwned(txCtx, sess, req.VideoID, req.UserID); err != nil {
			return err
		}
		event, err := outboxevents.NewWorkflowRequestedEvent(req, eventID, occurredAt)
		if err != nil {
			return fmt.Errorf("build workflow event: %w", err)
		}
		msg, err := outboxevents.ToOutboxMessage(event, outboxevents.TraceIDFromContext(txCtx))
		if err != nil {
			return err
		}
		if err := s.outbox.Enqueue(txCtx, sess, msg); err != nil {
			return fmt.Errorf("enqueue workflow event: %w", err)
		}
		return nil
	})
	s.metrics.observe(ctx, eventType, started, err)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		s.log.WithContext(ctx).Errorf("trigger workflow failed: kind=%s video=%s err=%v", eventType, req.VideoID, err)
		return nil, internalError("Failed to start the workflow!", err)
	}

	s.log.WithContext(ctx).Infof("workflow triggered: kind=%s video=%s run=%s", eventType, req.VideoID, eventID)
	return &vo.WorkflowRun{WorkflowRunID: eventID}, nil
}
