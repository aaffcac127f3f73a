package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/pkg/logger"
)

const (
	TaskTypeWorkflowEvent = "workflow:event"
	workflowEventQueue    = "notifications"
)

// TaskQueue hands committed workflow events to whatever delivers them.
type TaskQueue interface {
	// Enqueue adds an event to the queue
	Enqueue(ctx context.Context, event *WorkflowEvent) error
	// IsAsync returns true if the queue hands events to an external worker
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue picks the Redis backed queue when enabled and reachable,
// otherwise the inline queue.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if !cfg.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}

	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &AsyncQueue{client: asynq.NewClient(redisOpt)}, nil
}

// NewWorkflowEventTask encodes an event as an asynq task.
func NewWorkflowEventTask(event *WorkflowEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWorkflowEvent, payload), nil
}

func (q *AsyncQueue) Enqueue(ctx context.Context, event *WorkflowEvent) error {
	task, err := NewWorkflowEventTask(event)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(workflowEventQueue),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("event", string(event.Type)).Msg("workflow event enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs the processor inline in the caller's goroutine.
type SyncQueue struct {
	processor EventProcessor
}

// NewSyncQueue returns a queue whose default processor logs each event.
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{processor: logWorkflowEvent}
}

// SetProcessor replaces the function that handles each event.
func (q *SyncQueue) SetProcessor(processor EventProcessor) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(ctx context.Context, event *WorkflowEvent) error {
	if q.processor == nil {
		return nil
	}
	return q.processor(ctx, event)
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}

func logWorkflowEvent(_ context.Context, event *WorkflowEvent) error {
	ev := logger.Info().
		Str("event", string(event.Type)).
		Str("project_id", event.ProjectID.String()).
		Str("actor_id", event.ActorID.String()).
		Int("recipients", len(event.Recipients))
	if event.IssueID != nil {
		ev = ev.Str("issue_id", event.IssueID.String())
	}
	ev.Msg("workflow event")
	return nil
}
