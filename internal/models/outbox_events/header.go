// Package outboxevents 定义经 outbox 投递到工作流任务的事件，
// 以及事件在 Pub/Sub 上携带的 attributes。
package outboxevents

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Attribute 键。订阅端据此过滤与路由，不解析消息体。
const (
	AttrEventID       = "event_id"
	AttrWorkflow      = "workflow"
	AttrVideoID       = "video_id"
	AttrOccurredAt    = "occurred_at"
	AttrSchemaVersion = "schema_version"
	AttrTraceID       = "trace_id"
)

// BuildAttributes 生成消息 attributes。加密的 API Key 只出现在消息体中。
func BuildAttributes(event *DomainEvent, traceID string) map[string]string {
	attrs := map[string]string{
		AttrEventID:       event.EventID.String(),
		AttrWorkflow:      event.Kind.String(),
		AttrVideoID:       event.AggregateID.String(),
		AttrOccurredAt:    event.OccurredAt.UTC().Format(time.RFC3339Nano),
		AttrSchemaVersion: SchemaVersionV1,
	}
	if traceID != "" {
		attrs[AttrTraceID] = traceID
	}
	return attrs
}

// TraceIDFromContext 返回当前 span 的 trace id，没有有效 span 时为空串。
func TraceIDFromContext(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// versionOf 以发生时间的 UTC 微秒作为事件版本。
func versionOf(t time.Time) int64 {
	return t.UTC().UnixMicro()
}
