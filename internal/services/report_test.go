package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/store"
)

// failingReportStore refuses to save reports.
type failingReportStore struct {
	store.Store
}

func (failingReportStore) CreateReport(ctx context.Context, r feedback.Report) (string, error) {
	return "", errors.New("disk full")
}

func newTestReportService(st store.Store, sum Summarizer) *ReportService {
	return NewReportService(NewFeedbackService(st, nil), st, sum, nil, 5)
}

func TestReportService_Generate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seed := store.MockRecords(6, now)
	seed[0].Status = feedback.StatusClosed
	st := store.NewMemoryStore(seed)
	sum := &fakeSummarizer{content: "Resumen ejecutivo."}
	s := newTestReportService(st, sum)

	saved, err := s.Generate(context.Background(), feedback.TabIncident, feedback.FilterState{}, TriggerManual)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Errorf("report not persisted: %+v", saved)
	}
	if saved.RecordCount != 5 {
		t.Errorf("RecordCount = %d, want 5 without the closed record", saved.RecordCount)
	}
	if saved.AISummary != "Resumen ejecutivo." || saved.AIModelUsed != "fake-model" {
		t.Errorf("summary = %q, model = %q", saved.AISummary, saved.AIModelUsed)
	}
	if saved.InfographicHTML == "" || saved.TableHTML == "" {
		t.Error("missing rendered sections")
	}

	reports, _ := s.List(context.Background())
	if len(reports) != 1 {
		t.Errorf("stored reports = %d", len(reports))
	}
}

func TestReportService_PlaceholderOnSummarizerFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		sum  Summarizer
	}{
		{"credential missing", &fakeSummarizer{err: ErrCredentialMissing}},
		{"unavailable", &fakeSummarizer{err: ErrSummarizerUnavailable}},
		{"no summarizer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestReportService(store.NewMemoryStore(store.MockRecords(3, now)), tt.sum)

			saved, err := s.Generate(context.Background(), feedback.TabGeneral, feedback.FilterState{}, TriggerManual)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if saved.AISummary != SummaryPlaceholder {
				t.Errorf("AISummary = %q, want placeholder", saved.AISummary)
			}
			if saved.RecordCount != 3 {
				t.Errorf("RecordCount = %d", saved.RecordCount)
			}
		})
	}
}

func TestReportService_SaveFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	st := failingReportStore{Store: store.NewMemoryStore(store.MockRecords(2, now))}
	s := newTestReportService(st, &fakeSummarizer{content: "x"})

	_, err := s.Generate(context.Background(), feedback.TabGeneral, feedback.FilterState{}, TriggerManual)
	if !errors.Is(err, ErrReportSave) {
		t.Fatalf("err = %v, want ErrReportSave", err)
	}
}

func TestReportService_PromptSample(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sum := &fakeSummarizer{content: "x"}
	s := newTestReportService(store.NewMemoryStore(store.MockRecords(12, now)), sum)

	if _, err := s.Generate(context.Background(), feedback.TabGeneral, feedback.FilterState{}, TriggerManual); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	prompt := sum.requests[0].Prompt
	if !strings.Contains(prompt, "Hay 12 registros en total; se adjunta una muestra de 5") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestReportService_Document(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestReportService(store.NewMemoryStore(store.MockRecords(2, now)), &fakeSummarizer{content: "<b>resumen</b>"})
	ctx := context.Background()

	saved, err := s.Generate(ctx, feedback.TabGeneral, feedback.FilterState{}, TriggerManual)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	name, data, err := s.Document(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if !strings.HasSuffix(name, ".html") {
		t.Errorf("filename = %s", name)
	}
	if strings.Contains(string(data), "<b>resumen</b>") {
		t.Error("summary not escaped")
	}

	if err := s.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Document(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted report: err = %v", err)
	}
}
