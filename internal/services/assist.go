package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/internal/store"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

// ErrAssistBusy is returned while a synthesis for the same record runs.
var ErrAssistBusy = errors.New("a synthesis for this record is already running")

// AssistResult is an editable synthesis offered as review result text. It
// is never written to the record by the service.
type AssistResult struct {
	FeedbackID string `json:"feedback_id"`
	Suggestion string `json:"suggestion"`
	Model      string `json:"model,omitempty"`
}

// ReviewAssistService asks the summarizer for a synthesis of one record.
type ReviewAssistService struct {
	store      store.Store
	summarizer Summarizer
	configs    *SystemConfigService
	busy       sync.Map
}

func NewReviewAssistService(st store.Store, summarizer Summarizer, configs *SystemConfigService) *ReviewAssistService {
	return &ReviewAssistService{store: st, summarizer: summarizer, configs: configs}
}

func (s *ReviewAssistService) acquire(id string) bool {
	_, loaded := s.busy.LoadOrStore(id, struct{}{})
	return !loaded
}

func (s *ReviewAssistService) release(id string) {
	s.busy.Delete(id)
}

// IsBusy reports whether a synthesis for id is in flight.
func (s *ReviewAssistService) IsBusy(id string) bool {
	_, ok := s.busy.Load(id)
	return ok
}

// Suggest returns a synthesis of the record. A failure leaves the record
// untouched and is returned to the caller; summarizer failures wrap
// ErrCredentialMissing or ErrSummarizerUnavailable.
func (s *ReviewAssistService) Suggest(ctx context.Context, id string) (*AssistResult, error) {
	if !s.acquire(id) {
		return nil, ErrAssistBusy
	}
	defer s.release(id)

	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.summarizer == nil {
		return nil, ErrCredentialMissing
	}

	var llmID uint
	if s.configs != nil {
		llmID = s.configs.GetUint(KeyAssistLLMConfigID)
	}
	out, err := s.summarizer.Summarize(ctx, SummaryRequest{
		Purpose:     models.AIPurposeAssist,
		FeedbackID:  id,
		LLMConfigID: llmID,
		Prompt:      AssistPrompt(r),
	})
	if err != nil {
		logger.Warnf("[Assist] Synthesis for %s failed: %v", id, err)
		return nil, fmt.Errorf("assist %s: %w", id, err)
	}
	return &AssistResult{FeedbackID: id, Suggestion: strings.TrimSpace(out.Content), Model: out.Model}, nil
}

// AssistPrompt frames one record for the synthesis request.
func AssistPrompt(r feedback.Record) string {
	var sb strings.Builder
	sb.WriteString("Eres un asistente del Colegio Oficial de Trabajo Social que revisa el feedback recibido sobre Deontolog-IA, ")
	sb.WriteString("un chatbot de consulta deontológica. Analiza el siguiente registro y redacta, en español y en no más de 120 palabras, ")
	sb.WriteString("una síntesis con tres apartados: Problema, Sentimiento y Siguiente acción sugerida.\n\n")
	for _, line := range feedback.Summary(r) {
		fmt.Fprintf(&sb, "%s: %s\n", line.Label, line.Value)
	}
	if r.Result != "" {
		fmt.Fprintf(&sb, "Notas de revisión actuales: %s\n", r.Result)
	}
	return sb.String()
}
