package outboxevents

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/google/uuid"
)

// WorkflowRequest 描述构建工作流事件所需的参数。
type WorkflowRequest struct {
	Kind    Kind
	UserID  uuid.UUID
	VideoID uuid.UUID
	Prompt  string
	APIKey  string
}

// NewWorkflowRequestedEvent 构建工作流触发事件，聚合根为视频。
func NewWorkflowRequestedEvent(req WorkflowRequest, eventID uuid.UUID, occurredAt time.Time) (*DomainEvent, error) {
	if eventID == uuid.Nil {
		return nil, ErrInvalidEventID
	}
	if req.Kind.String() == KindUnknown.String() {
		return nil, ErrUnknownEventKind
	}
	if req.UserID == uuid.Nil || req.VideoID == uuid.Nil {
		return nil, fmt.Errorf("workflow event: user_id and video_id required")
	}
	if req.Kind == KindThumbnailRequested && req.Prompt == "" {
		return nil, ErrMissingPrompt
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	occurredAt = occurredAt.UTC()

	return &DomainEvent{
		EventID:       eventID,
		Kind:          req.Kind,
		AggregateID:   req.VideoID,
		AggregateType: AggregateTypeVideo,
		Version:       versionOf(occurredAt),
		OccurredAt:    occurredAt,
		Payload: &WorkflowRequested{
			EventID:    eventID,
			Workflow:   req.Kind.String(),
			UserID:     req.UserID,
			VideoID:    req.VideoID,
			Prompt:     req.Prompt,
			APIKey:     req.APIKey,
			OccurredAt: occurredAt,
		},
	}, nil
}

// ToOutboxMessage 将事件编码为 outbox 行。
func ToOutboxMessage(event *DomainEvent, traceID string) (store.Message, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return store.Message{}, fmt.Errorf("marshal event payload: %w", err)
	}
	return store.Message{
		EventID:       event.EventID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.Kind.String(),
		Payload:       payload,
		Headers:       BuildAttributes(event, traceID),
		AvailableAt:   event.OccurredAt,
	}, nil
}

// DecodeWorkflowRequested 解析 Pub/Sub 消息体。
func DecodeWorkflowRequested(data []byte) (*WorkflowRequested, error) {
	var evt WorkflowRequested
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("decode workflow event: %w", err)
	}
	if evt.EventID == uuid.Nil {
		return nil, ErrInvalidEventID
	}
	if evt.Kind() == KindUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, evt.Workflow)
	}
	return &evt, nil
}
