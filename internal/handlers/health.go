package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the subsystems.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
	jobs  *services.JobHub
	store string
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, jobs *services.JobHub, storeBackend string) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, jobs: jobs, store: storeBackend}
}

// CheckHealth answers 503 when the database cannot be reached.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	if h.db == nil {
		dbStatus = "not configured"
	} else if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" && dbStatus != "not configured" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	sseClients := 0
	if h.jobs != nil {
		sseClients = h.jobs.ClientCount()
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "deontolog-ia-feedback",
		"components": gin.H{
			"database":    dbStatus,
			"store":       h.store,
			"queue_mode":  queueMode,
			"sse_clients": sseClients,
		},
	})
}
