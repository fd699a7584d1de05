package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
	"github.com/sanidhyy/yt-clone/internal/services"
	"github.com/sanidhyy/yt-clone/internal/tasks/workflows"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubSteps struct {
	err   error
	calls []*outboxevents.WorkflowRequested
}

func (s *stubSteps) Execute(_ context.Context, evt *outboxevents.WorkflowRequested) error {
	s.calls = append(s.calls, evt)
	return s.err
}

func newEvent() *outboxevents.WorkflowRequested {
	return &outboxevents.WorkflowRequested{
		EventID:    uuid.New(),
		Workflow:   outboxevents.KindTitleRequested.String(),
		UserID:     uuid.New(),
		VideoID:    uuid.New(),
		OccurredAt: time.Now().Add(-time.Second).UTC(),
	}
}

func TestEventHandlerRunsSteps(t *testing.T) {
	steps := &stubSteps{}
	handler := workflows.NewEventHandler(steps, log.NewStdLogger(io.Discard), nil)

	evt := newEvent()
	require.NoError(t, handler.Handle(context.Background(), nil, evt, nil))
	require.Len(t, steps.calls, 1)
	require.Equal(t, evt.VideoID, steps.calls[0].VideoID)
}

func TestEventHandlerAcknowledgesSkippedWorkflows(t *testing.T) {
	steps := &stubSteps{err: fmt.Errorf("%w: no api key", services.ErrWorkflowSkipped)}
	handler := workflows.NewEventHandler(steps, log.NewStdLogger(io.Discard), nil)

	require.NoError(t, handler.Handle(context.Background(), nil, newEvent(), nil))
}

func TestEventHandlerReturnsRetryableErrors(t *testing.T) {
	boom := errors.New("upstream unavailable")
	steps := &stubSteps{err: boom}
	handler := workflows.NewEventHandler(steps, log.NewStdLogger(io.Discard), nil)

	err := handler.Handle(context.Background(), nil, newEvent(), nil)
	require.ErrorIs(t, err, boom)
}

func TestEventHandlerRejectsNilEvent(t *testing.T) {
	handler := workflows.NewEventHandler(&stubSteps{}, log.NewStdLogger(io.Discard), nil)
	require.Error(t, handler.Handle(context.Background(), nil, nil, nil))
}
