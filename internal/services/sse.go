package services

import (
	"sync"
	"time"
)

// Job kinds and states carried by JobEvent.
const (
	JobReport = "report"
	JobAssist = "assist"

	JobQueued    = "queued"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobEvent is published when a background job changes state.
type JobEvent struct {
	JobID      string    `json:"job_id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Tab        string    `json:"tab,omitempty"`
	ReportID   string    `json:"report_id,omitempty"`
	FeedbackID string    `json:"feedback_id,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// JobHub fans job events out to connected SSE clients.
type JobHub struct {
	clients map[string]chan JobEvent
	mu      sync.RWMutex
}

func NewJobHub() *JobHub {
	return &JobHub{
		clients: make(map[string]chan JobEvent),
	}
}

// Subscribe registers a client and returns its event channel.
func (h *JobHub) Subscribe(clientID string) <-chan JobEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan JobEvent, 100)
	h.clients[clientID] = ch
	return ch
}

func (h *JobHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts an event. Clients with a full buffer miss it.
func (h *JobHub) Publish(event JobEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *JobHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
