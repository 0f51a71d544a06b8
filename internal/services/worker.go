package services

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

// Worker consumes report and assist tasks from Redis.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor TaskProcessor
	running   bool
	mu        sync.Mutex
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig, processor TaskProcessor) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: processor,
	}
	w.mux.HandleFunc(TaskTypeReport, w.handle)
	w.mux.HandleFunc(TaskTypeAssist, w.handle)
	return w
}

// Start begins consuming in the background. Stop must be called on exit;
// the worker does not install its own signal handlers.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.running = true
	logger.Infof("[Worker] Async worker started")
	return nil
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
	logger.Infof("[Worker] Shutdown complete")
}

func (w *Worker) handle(ctx context.Context, t *asynq.Task) error {
	logger.Infof("[Worker] Processing %s task", t.Type())
	if w.processor == nil {
		logger.Warnf("[Worker] No processor set")
		return nil
	}
	return w.processor(ctx, &Task{Type: t.Type(), Payload: t.Payload()})
}
