package services

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

const (
	TaskTypeReport = "report:generate"
	TaskTypeAssist = "feedback:assist"
)

// ReportTask asks for a report over the records matching Filter.
type ReportTask struct {
	JobID   string               `json:"job_id"`
	Tab     feedback.Tab         `json:"tab"`
	Filter  feedback.FilterState `json:"filter"`
	Trigger string               `json:"trigger"`
}

// AssistTask asks for a review synthesis of one record.
type AssistTask struct {
	JobID      string `json:"job_id"`
	FeedbackID string `json:"feedback_id"`
}

// Task is a typed, JSON-encoded job.
type Task struct {
	Type    string
	Payload []byte
}

func NewReportTask(t *ReportTask) (*Task, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return &Task{Type: TaskTypeReport, Payload: payload}, nil
}

func NewAssistTask(t *AssistTask) (*Task, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return &Task{Type: TaskTypeAssist, Payload: payload}, nil
}

// TaskProcessor runs one task.
type TaskProcessor func(ctx context.Context, task *Task) error

// TaskQueue accepts background jobs.
type TaskQueue interface {
	Enqueue(task *Task) error
	// IsAsync reports whether tasks are handed to a separate worker.
	IsAsync() bool
	Close() error
}

// NewTaskQueue returns a Redis-backed queue when enabled and reachable,
// else a SyncQueue.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if !cfg.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}
	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue enqueues tasks on Redis through asynq.
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}
	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *Task) error {
	info, err := q.client.Enqueue(asynq.NewTask(task.Type, task.Payload),
		asynq.Queue("default"),
		asynq.MaxRetry(2),
	)
	if err != nil {
		return err
	}
	logger.Infof("[AsyncQueue] Task enqueued: type=%s id=%s queue=%s", task.Type, info.ID, info.Queue)
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs each task in its own goroutine in this process.
type SyncQueue struct {
	processor TaskProcessor
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor TaskProcessor) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *Task) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] No processor set, dropping %s task", task.Type)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Infof("[SyncQueue] Task %s failed: %v", task.Type, err)
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

// Close waits for running tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
