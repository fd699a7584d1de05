package outboxevents

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind 标识领域事件类型。
type Kind int

// 领域事件类型常量。
const (
	KindUnknown Kind = iota
	// KindTitleRequested 请求为视频生成标题。
	KindTitleRequested
	// KindDescriptionRequested 请求为视频生成描述。
	KindDescriptionRequested
	// KindThumbnailRequested 请求按提示词生成缩略图。
	KindThumbnailRequested
)

func (k Kind) String() string {
	switch k {
	case KindTitleRequested:
		return "workflow.title.requested"
	case KindDescriptionRequested:
		return "workflow.description.requested"
	case KindThumbnailRequested:
		return "workflow.thumbnail.requested"
	default:
		return "workflow.event.unknown"
	}
}

// ParseKind 将事件类型字符串还原为 Kind，未知类型返回 KindUnknown。
func ParseKind(value string) Kind {
	for _, k := range []Kind{KindTitleRequested, KindDescriptionRequested, KindThumbnailRequested} {
		if k.String() == value {
			return k
		}
	}
	return KindUnknown
}

// DomainEvent 表示领域层生成的标准事件。
type DomainEvent struct {
	EventID       uuid.UUID
	Kind          Kind
	AggregateID   uuid.UUID
	AggregateType string
	Version       int64
	OccurredAt    time.Time
	Payload       any
}

// WorkflowRequested 是工作流触发事件的载荷，也是发布到 Pub/Sub 的 JSON 结构。
// APIKey 保存的是加密后的 Cookie 值，由工作流任务用同一密钥解密。
type WorkflowRequested struct {
	EventID    uuid.UUID `json:"eventId"`
	Workflow   string    `json:"workflow"`
	UserID     uuid.UUID `json:"userId"`
	VideoID    uuid.UUID `json:"videoId"`
	Prompt     string    `json:"prompt,omitempty"`
	APIKey     string    `json:"apiKey,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Kind 返回载荷对应的事件类型。
func (w *WorkflowRequested) Kind() Kind {
	return ParseKind(w.Workflow)
}

const (
	// AggregateTypeVideo 标识视频聚合类型。
	AggregateTypeVideo = "video"
	// SchemaVersionV1 描述事件载荷的当前 schema 版本。
	SchemaVersionV1 = "v1"
)

var (
	// ErrInvalidEventID 表示未提供合法的事件 ID。
	ErrInvalidEventID = errors.New("event builder: event id is required")
	// ErrUnknownEventKind 表示未识别的事件类型。
	ErrUnknownEventKind = errors.New("event builder: unknown event kind")
	// ErrMissingPrompt 表示缩略图工作流缺少提示词。
	ErrMissingPrompt = errors.New("event builder: prompt is required")
)
