package services

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/projectflow/backend/internal/config"
)

func TestNewWorker_RedisDisabled(t *testing.T) {
	if w := NewWorker(&config.RedisConfig{Enabled: false}); w != nil {
		t.Error("NewWorker() should return nil when Redis is disabled")
	}
}

func TestWorker_HandleWorkflowEvent(t *testing.T) {
	w := &Worker{}
	task, err := NewWorkflowEventTask(&WorkflowEvent{Type: EventAssignmentApproved, IssueTitle: "Broken login"})
	if err != nil {
		t.Fatalf("NewWorkflowEventTask() error = %v", err)
	}

	if err := w.handleWorkflowEvent(context.Background(), task); err != nil {
		t.Errorf("without processor error = %v", err)
	}

	var got *WorkflowEvent
	w.SetProcessor(func(_ context.Context, e *WorkflowEvent) error {
		got = e
		return nil
	})
	if err := w.handleWorkflowEvent(context.Background(), task); err != nil {
		t.Fatalf("handleWorkflowEvent() error = %v", err)
	}
	if got == nil || got.Type != EventAssignmentApproved || got.IssueTitle != "Broken login" {
		t.Errorf("processed = %+v", got)
	}
}

func TestWorker_MalformedPayloadSkipsRetry(t *testing.T) {
	w := &Worker{}
	err := w.handleWorkflowEvent(context.Background(), asynq.NewTask(TaskTypeWorkflowEvent, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error = %v, expected SkipRetry", err)
	}
}

func TestWorker_ServeMuxRoutesWorkflowEvents(t *testing.T) {
	w := &Worker{}
	var processed int
	w.SetProcessor(func(context.Context, *WorkflowEvent) error {
		processed++
		return nil
	})
	mux := w.newServeMux()

	task, _ := NewWorkflowEventTask(&WorkflowEvent{Type: EventMemberAdded})
	if err := mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if processed != 1 {
		t.Errorf("processed = %d, expected 1", processed)
	}

	if err := mux.ProcessTask(context.Background(), asynq.NewTask("unknown:type", nil)); err == nil {
		t.Error("unregistered task types should fail")
	}
}
