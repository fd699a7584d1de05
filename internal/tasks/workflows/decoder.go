// Package workflows 消费工作流触发事件，在后台执行 AI 生成步骤。
package workflows

import (
	"fmt"

	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
)

// decoder 实现 inbox.Decoder 接口，将 Pub/Sub payload 解析为工作流事件。
type decoder struct{}

func newDecoder() *decoder {
	return &decoder{}
}

// Decode 解析事件载荷。
func (d *decoder) Decode(data []byte) (*outboxevents.WorkflowRequested, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("workflow inbox: empty payload")
	}
	return outboxevents.DecodeWorkflowRequested(data)
}
