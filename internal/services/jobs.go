package services

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

// JobRunner enqueues background report and assist jobs and processes
// them, publishing every state change on the hub.
type JobRunner struct {
	queue   TaskQueue
	reports *ReportService
	assist  *ReviewAssistService
	hub     *JobHub
}

func NewJobRunner(queue TaskQueue, reports *ReportService, assist *ReviewAssistService, hub *JobHub) *JobRunner {
	return &JobRunner{queue: queue, reports: reports, assist: assist, hub: hub}
}

// EnqueueReport schedules a report and returns its job id.
func (j *JobRunner) EnqueueReport(tab feedback.Tab, filter feedback.FilterState, trigger string) (string, error) {
	jobID := uuid.NewString()
	task, err := NewReportTask(&ReportTask{JobID: jobID, Tab: tab, Filter: filter, Trigger: trigger})
	if err != nil {
		return "", err
	}
	if err := j.queue.Enqueue(task); err != nil {
		return "", fmt.Errorf("enqueue report: %w", err)
	}
	j.hub.Publish(JobEvent{JobID: jobID, Kind: JobReport, Status: JobQueued, Tab: string(tab)})
	return jobID, nil
}

// EnqueueAssist schedules a synthesis and returns its job id.
func (j *JobRunner) EnqueueAssist(feedbackID string) (string, error) {
	if j.assist.IsBusy(feedbackID) {
		return "", ErrAssistBusy
	}
	jobID := uuid.NewString()
	task, err := NewAssistTask(&AssistTask{JobID: jobID, FeedbackID: feedbackID})
	if err != nil {
		return "", err
	}
	if err := j.queue.Enqueue(task); err != nil {
		return "", fmt.Errorf("enqueue assist: %w", err)
	}
	j.hub.Publish(JobEvent{JobID: jobID, Kind: JobAssist, Status: JobQueued, FeedbackID: feedbackID})
	return jobID, nil
}

// Process is the TaskProcessor for both queue modes.
func (j *JobRunner) Process(ctx context.Context, task *Task) error {
	switch task.Type {
	case TaskTypeReport:
		var t ReportTask
		if err := json.Unmarshal(task.Payload, &t); err != nil {
			return fmt.Errorf("decode report task: %w", err)
		}
		return j.runReport(ctx, &t)
	case TaskTypeAssist:
		var t AssistTask
		if err := json.Unmarshal(task.Payload, &t); err != nil {
			return fmt.Errorf("decode assist task: %w", err)
		}
		return j.runAssist(ctx, &t)
	default:
		logger.Warnf("[Jobs] Unknown task type %s", task.Type)
		return nil
	}
}

func (j *JobRunner) runReport(ctx context.Context, t *ReportTask) error {
	event := JobEvent{JobID: t.JobID, Kind: JobReport, Tab: string(t.Tab)}
	saved, err := j.reports.Generate(ctx, t.Tab, t.Filter, t.Trigger)
	if err != nil {
		event.Status = JobFailed
		event.Error = err.Error()
		j.hub.Publish(event)
		return err
	}
	event.Status = JobCompleted
	event.ReportID = saved.ID
	j.hub.Publish(event)
	return nil
}

func (j *JobRunner) runAssist(ctx context.Context, t *AssistTask) error {
	event := JobEvent{JobID: t.JobID, Kind: JobAssist, FeedbackID: t.FeedbackID}
	res, err := j.assist.Suggest(ctx, t.FeedbackID)
	if err != nil {
		event.Status = JobFailed
		event.Error = err.Error()
		j.hub.Publish(event)
		return err
	}
	event.Status = JobCompleted
	event.Suggestion = res.Suggestion
	j.hub.Publish(event)
	return nil
}
