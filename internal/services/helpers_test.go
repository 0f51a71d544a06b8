package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := models.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

// fakeSummarizer answers with a fixed completion or error and records
// every request.
type fakeSummarizer struct {
	mu       sync.Mutex
	content  string
	err      error
	requests []SummaryRequest
	block    chan struct{}
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req SummaryRequest) (*Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Content: f.content, Model: "fake-model", Provider: "fake"}, nil
}

func (f *fakeSummarizer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func incidentSubmission(description string) feedback.Submission {
	return feedback.Submission{
		EvaluatorName: "Ana",
		Device:        string(feedback.DeviceDesktop),
		Scenario:      "secreto profesional",
		Kind:          string(feedback.KindError),
		Description:   description,
	}
}

func conversationSubmission(rating int) feedback.Submission {
	return feedback.Submission{
		EvaluatorName:       "Luis",
		Device:              string(feedback.DeviceMobile),
		Scenario:            "menores",
		Kind:                string(feedback.KindConversation),
		Clarity:             feedback.AnswerYes,
		Usefulness:          feedback.AnswerUnsure,
		DeontologicalRating: rating,
	}
}
