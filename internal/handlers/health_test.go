package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
)

func TestCheckHealth(t *testing.T) {
	db := newTestDB(t)
	hub := services.NewJobHub()
	hub.Subscribe("one")
	h := NewHealthHandler(db, services.NewSyncQueue(), hub, "memory")

	r := gin.New()
	r.GET("/health", h.CheckHealth)
	w, _ := doJSON(t, r, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()
	w, _ = doJSON(t, r, "GET", "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("closed db: status %d", w.Code)
	}
}
