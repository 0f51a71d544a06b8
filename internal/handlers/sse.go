package handlers

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/metrics"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

const sseHeartbeat = 25 * time.Second

// SSEHandler streams live updates to the back office.
type SSEHandler struct {
	jobs            *services.JobHub
	feedbackService *services.FeedbackService
	heartbeat       time.Duration
}

func NewSSEHandler(jobs *services.JobHub, fb *services.FeedbackService) *SSEHandler {
	return &SSEHandler{jobs: jobs, feedbackService: fb, heartbeat: sseHeartbeat}
}

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

func writeEvent(w io.Writer, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

// StreamJobs relays background job events.
// GET /api/events/jobs
func (h *SSEHandler) StreamJobs(c *gin.Context) {
	sseHeaders(c)

	clientID := uuid.NewString()
	events := h.jobs.Subscribe(clientID)
	defer h.jobs.Unsubscribe(clientID)

	gauge := metrics.SSEClients.WithLabelValues("jobs")
	gauge.Inc()
	defer gauge.Dec()

	logger.Info().Str("client_id", clientID).Int("total", h.jobs.ClientCount()).Msg("[SSE] Jobs client connected")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			if err := writeEvent(w, "job", event); err != nil {
				logger.Error().Err(err).Msg("[SSE] Failed to encode job event")
			}
			return true
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("[SSE] Jobs client disconnected")
			return false
		}
	})
}

type feedbackSnapshot struct {
	Total int               `json:"total"`
	Items []feedback.Record `json:"items"`
}

// StreamFeedback pushes the filtered record list on connect and after
// every change. A failing subscription sends an empty snapshot followed by
// an error event.
// GET /api/events/feedback
func (h *SSEHandler) StreamFeedback(c *gin.Context) {
	var f feedback.FilterState
	if err := c.ShouldBindQuery(&f); err != nil {
		badInput(c, err)
		return
	}
	sseHeaders(c)

	// Only the latest snapshot matters; a slow client skips stale ones.
	snapshots := make(chan []feedback.Record, 1)
	failures := make(chan error, 1)
	unsubscribe := h.feedbackService.Watch(
		func(records []feedback.Record) {
			select {
			case <-snapshots:
			default:
			}
			select {
			case snapshots <- records:
			default:
			}
		},
		func(err error) {
			select {
			case failures <- err:
			default:
			}
		},
	)
	defer unsubscribe()

	gauge := metrics.SSEClients.WithLabelValues("feedback")
	gauge.Inc()
	defer gauge.Dec()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case records := <-snapshots:
			subset := feedback.Filter(records, f)
			if subset == nil {
				subset = []feedback.Record{}
			}
			if err := writeEvent(w, "snapshot", feedbackSnapshot{Total: len(subset), Items: subset}); err != nil {
				logger.Error().Err(err).Msg("[SSE] Failed to encode feedback snapshot")
			}
			return true
		case err := <-failures:
			logger.Warn().Err(err).Msg("[SSE] Feedback subscription failed")
			writeEvent(w, "snapshot", feedbackSnapshot{Items: []feedback.Record{}})
			writeEvent(w, "error", gin.H{"message": "no se pudieron cargar los registros"})
			return true
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
