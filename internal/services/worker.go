package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/pkg/logger"
)

// EventProcessor consumes one workflow event.
type EventProcessor func(context.Context, *WorkflowEvent) error

// Worker drains workflow events that AsyncQueue pushed to Redis.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor EventProcessor
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				workflowEventQueue: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warn().Err(err).Str("task", task.Type()).Msg("[Worker] task failed")
			}),
		},
	)

	w := &Worker{server: server}
	w.mux = w.newServeMux()
	return w
}

func (w *Worker) newServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeWorkflowEvent, w.handleWorkflowEvent)
	return mux
}

func (w *Worker) SetProcessor(processor EventProcessor) {
	w.processor = processor
}

// Start runs the asynq server in the background. Calling it twice is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Consuming %s from queue %q", TaskTypeWorkflowEvent, workflowEventQueue)
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
}

func (w *Worker) handleWorkflowEvent(ctx context.Context, t *asynq.Task) error {
	var event WorkflowEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		// malformed payloads will never succeed
		return fmt.Errorf("decode workflow event: %v: %w", err, asynq.SkipRetry)
	}

	logger.Debug().
		Str("type", string(event.Type)).
		Str("project_id", event.ProjectID.String()).
		Int("recipients", len(event.Recipients)).
		Msg("[Worker] processing workflow event")

	if w.processor == nil {
		return nil
	}
	return w.processor(ctx, &event)
}
