package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
)

// scriptedProvider answers per config name and counts calls.
type scriptedProvider struct {
	mu      sync.Mutex
	answers map[string]error
	calls   []string
}

func (p *scriptedProvider) invoke(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, llm.Name)
	if err := p.answers[llm.Name]; err != nil {
		return "", err
	}
	return "resumen de " + llm.Name, nil
}

func newTestAIService(t *testing.T, fallback *config.OpenAIConfig) (*AIService, *AIUsageService, *scriptedProvider) {
	t.Helper()
	db := newTestDB(t)
	usage := NewAIUsageService(db)
	s := NewAIService(db, fallback, config.AIConfig{}, usage)
	p := &scriptedProvider{answers: map[string]error{}}
	s.invoke = p.invoke
	return s, usage, p
}

func createLLM(t *testing.T, s *AIService, cfg models.LLMConfig) models.LLMConfig {
	t.Helper()
	if err := s.db.Create(&cfg).Error; err != nil {
		t.Fatalf("create llm config: %v", err)
	}
	return cfg
}

func TestAIService_NoCredential(t *testing.T) {
	s, _, p := newTestAIService(t, &config.OpenAIConfig{})

	_, err := s.Summarize(context.Background(), SummaryRequest{Purpose: models.AIPurposeReport, Prompt: "x"})
	if !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("err = %v, want ErrCredentialMissing", err)
	}
	if len(p.calls) != 0 {
		t.Errorf("provider called %d times, want 0", len(p.calls))
	}
}

func TestAIService_SkipsConfigWithoutKey(t *testing.T) {
	s, _, p := newTestAIService(t, nil)
	createLLM(t, s, models.LLMConfig{Name: "sin-clave", Provider: models.ProviderOpenAI, Model: "gpt", IsActive: true})

	_, err := s.Summarize(context.Background(), SummaryRequest{Prompt: "x"})
	if !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("err = %v, want ErrCredentialMissing", err)
	}
	if len(p.calls) != 0 {
		t.Errorf("provider called for a config without key")
	}
}

func TestAIService_FallbackOrder(t *testing.T) {
	s, usage, p := newTestAIService(t, nil)
	createLLM(t, s, models.LLMConfig{Name: "primero", APIKey: "k1", Model: "a", IsActive: true})
	def := createLLM(t, s, models.LLMConfig{Name: "defecto", APIKey: "k2", Model: "b", IsActive: true, IsDefault: true})
	p.answers["defecto"] = errors.New("boom")

	out, err := s.Summarize(context.Background(), SummaryRequest{Purpose: models.AIPurposeReport, Prompt: "hola"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out.Content != "resumen de primero" {
		t.Errorf("Content = %q", out.Content)
	}
	want := []string{"defecto", "primero"}
	if len(p.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", p.calls, want)
	}
	for i := range want {
		if p.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, p.calls[i], want[i])
		}
	}

	usage.Wait()
	var logs []models.AIUsageLog
	s.db.Find(&logs)
	if len(logs) != 2 {
		t.Fatalf("usage logs = %d, want 2", len(logs))
	}
	for _, l := range logs {
		failed := l.LLMConfigID == def.ID
		if l.Success == failed {
			t.Errorf("log for config %d: success = %v", l.LLMConfigID, l.Success)
		}
		if l.Purpose != models.AIPurposeReport || l.PromptChars != len("hola") {
			t.Errorf("log = %+v", l)
		}
	}
}

func TestAIService_PreferredConfigFirst(t *testing.T) {
	s, _, p := newTestAIService(t, nil)
	createLLM(t, s, models.LLMConfig{Name: "defecto", APIKey: "k1", Model: "a", IsActive: true, IsDefault: true})
	pref := createLLM(t, s, models.LLMConfig{Name: "elegido", APIKey: "k2", Model: "b", IsActive: true})

	out, err := s.Summarize(context.Background(), SummaryRequest{LLMConfigID: pref.ID, Prompt: "x"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out.Model != "b" || p.calls[0] != "elegido" {
		t.Errorf("model = %s, calls = %v", out.Model, p.calls)
	}
}

func TestAIService_AllFail(t *testing.T) {
	s, _, p := newTestAIService(t, nil)
	createLLM(t, s, models.LLMConfig{Name: "unico", APIKey: "k", Model: "a", IsActive: true})
	p.answers["unico"] = errors.New("timeout")

	_, err := s.Summarize(context.Background(), SummaryRequest{Prompt: "x"})
	if !errors.Is(err, ErrSummarizerUnavailable) {
		t.Fatalf("err = %v, want ErrSummarizerUnavailable", err)
	}
}

func TestAIService_YAMLFallback(t *testing.T) {
	s, _, p := newTestAIService(t, &config.OpenAIConfig{APIKey: "sk-yaml", Model: "gpt-4o-mini"})

	out, err := s.Summarize(context.Background(), SummaryRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out.Provider != models.ProviderOpenAI || p.calls[0] != "fallback" {
		t.Errorf("provider = %s, calls = %v", out.Provider, p.calls)
	}
}

func TestAIService_BreakerOpens(t *testing.T) {
	s, _, p := newTestAIService(t, nil)
	createLLM(t, s, models.LLMConfig{Name: "caido", APIKey: "k", Model: "a", IsActive: true})
	p.answers["caido"] = errors.New("503")

	for i := 0; i < 5; i++ {
		s.Summarize(context.Background(), SummaryRequest{Prompt: "x"})
	}
	if len(p.calls) != 3 {
		t.Errorf("provider calls = %d, want 3 before the breaker opens", len(p.calls))
	}
}

func TestAIService_EmptyCompletionFails(t *testing.T) {
	s, _, _ := newTestAIService(t, nil)
	createLLM(t, s, models.LLMConfig{Name: "vacio", APIKey: "k", Model: "a", IsActive: true})
	s.invoke = func(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
		return "   ", nil
	}

	_, err := s.Summarize(context.Background(), SummaryRequest{Prompt: "x"})
	if !errors.Is(err, ErrSummarizerUnavailable) {
		t.Fatalf("err = %v, want ErrSummarizerUnavailable", err)
	}
}

func TestAIService_TestConfig(t *testing.T) {
	s, _, _ := newTestAIService(t, nil)

	if _, err := s.TestConfig(context.Background(), &models.LLMConfig{Name: "x", Provider: models.ProviderOpenAI}); !errors.Is(err, ErrCredentialMissing) {
		t.Errorf("no key: err = %v", err)
	}
	out, err := s.TestConfig(context.Background(), &models.LLMConfig{Name: "local", Provider: models.ProviderOllama, Model: "llama3"})
	if err != nil {
		t.Fatalf("ollama without key: %v", err)
	}
	if out.Content != "resumen de local" {
		t.Errorf("Content = %q", out.Content)
	}
}
