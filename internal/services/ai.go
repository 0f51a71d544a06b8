package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/metrics"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

// Summarizer failures. Both are recoverable: callers degrade to a
// placeholder or an inline message.
var (
	ErrCredentialMissing     = errors.New("no summarizer credential configured")
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")
)

// SummaryRequest is one text-completion call.
type SummaryRequest struct {
	Purpose     string
	FeedbackID  string
	LLMConfigID uint
	Prompt      string
}

// Completion is the summarizer answer.
type Completion struct {
	Content  string
	Model    string
	Provider string
}

// Summarizer is the text-completion collaborator used by reports and the
// review assist.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (*Completion, error)
}

type providerFunc func(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error)

// AIService calls the configured LLM providers. Every provider config gets
// its own circuit breaker, and every attempt is recorded as an AIUsageLog.
type AIService struct {
	db       *gorm.DB
	fallback *config.OpenAIConfig
	aiCfg    config.AIConfig
	usage    *AIUsageService
	invoke   providerFunc

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[string]
}

func NewAIService(db *gorm.DB, fallback *config.OpenAIConfig, aiCfg config.AIConfig, usage *AIUsageService) *AIService {
	s := &AIService{
		db:       db,
		fallback: fallback,
		aiCfg:    aiCfg,
		usage:    usage,
		breakers: make(map[string]*gobreaker.CircuitBreaker[string]),
	}
	s.invoke = s.callLLM
	return s
}

var _ Summarizer = (*AIService)(nil)

// candidates orders the configs to try: the requested one, the default,
// every other active config, then the YAML fallback credential.
func (s *AIService) candidates(preferredID uint) []models.LLMConfig {
	var configs []models.LLMConfig
	seen := make(map[uint]bool)
	add := func(c models.LLMConfig) {
		if seen[c.ID] {
			return
		}
		seen[c.ID] = true
		configs = append(configs, c)
	}

	if s.db != nil {
		if preferredID > 0 {
			var preferred models.LLMConfig
			if err := s.db.Where("id = ? AND is_active = ?", preferredID, true).First(&preferred).Error; err == nil {
				add(preferred)
			} else {
				logger.Infof("[AI] LLM config %d not found or inactive, falling back to default", preferredID)
			}
		}

		var def models.LLMConfig
		if err := s.db.Where("is_default = ? AND is_active = ?", true, true).First(&def).Error; err == nil {
			add(def)
		}

		var active []models.LLMConfig
		s.db.Where("is_active = ?", true).Order("id ASC").Find(&active)
		for _, c := range active {
			add(c)
		}
	}

	if len(configs) == 0 && s.fallback != nil && s.fallback.APIKey != "" {
		configs = append(configs, models.LLMConfig{
			Name:     "fallback",
			Provider: models.ProviderOpenAI,
			BaseURL:  s.fallback.BaseURL,
			APIKey:   s.fallback.APIKey,
			Model:    s.fallback.Model,
		})
	}

	usable := configs[:0]
	for _, c := range configs {
		if c.APIKey == "" && c.Provider != models.ProviderOllama {
			logger.Warnf("[AI] Skipping LLM config %s: no API key", c.Name)
			continue
		}
		usable = append(usable, c)
	}
	return usable
}

func breakerName(llm *models.LLMConfig) string {
	return fmt.Sprintf("%s-%d", providerOf(llm), llm.ID)
}

func providerOf(llm *models.LLMConfig) string {
	if llm.Provider == "" {
		return "openai"
	}
	return llm.Provider
}

func (s *AIService) breaker(llm *models.LLMConfig) *gobreaker.CircuitBreaker[string] {
	name := breakerName(llm)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.breakers[name]; ok {
		return cb
	}

	bc := s.aiCfg.Breaker
	threshold := bc.ConsecutiveFailures
	if threshold == 0 {
		threshold = 3
	}
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    time.Duration(bc.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(bc.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[AI] Circuit breaker state change")
			metrics.SetBreakerState(name, to.String())
		},
	})
	metrics.SetBreakerState(name, cb.State().String())
	s.breakers[name] = cb
	return cb
}

// Summarize runs the prompt on the first candidate config that answers.
func (s *AIService) Summarize(ctx context.Context, req SummaryRequest) (*Completion, error) {
	configs := s.candidates(req.LLMConfigID)
	if len(configs) == 0 {
		return nil, ErrCredentialMissing
	}

	var lastErr error
	for i := range configs {
		llm := &configs[i]
		logger.Infof("[AI] Attempting LLM %d/%d: %s (provider: %s, model: %s)", i+1, len(configs), llm.Name, providerOf(llm), llm.Model)

		content, err := s.attempt(ctx, llm, req)
		if err == nil {
			return &Completion{Content: content, Model: llm.Model, Provider: providerOf(llm)}, nil
		}
		lastErr = err
		logger.Infof("[AI] LLM %s failed: %v, trying next...", llm.Name, err)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrSummarizerUnavailable, lastErr)
}

func (s *AIService) attempt(ctx context.Context, llm *models.LLMConfig, req SummaryRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.aiCfg.Timeout())
	defer cancel()

	start := time.Now()
	content, err := s.breaker(llm).Execute(func() (string, error) {
		out, err := s.invoke(callCtx, llm, req.Prompt)
		if err == nil && strings.TrimSpace(out) == "" {
			return "", errors.New("empty completion")
		}
		return out, err
	})
	latency := time.Since(start)

	metrics.RecordAICall(providerOf(llm), latency, err)
	if s.usage != nil {
		entry := &models.AIUsageLog{
			Purpose:         req.Purpose,
			FeedbackID:      req.FeedbackID,
			LLMConfigID:     llm.ID,
			Provider:        providerOf(llm),
			Model:           llm.Model,
			PromptChars:     len(req.Prompt),
			CompletionChars: len(content),
			LatencyMs:       latency.Milliseconds(),
			Success:         err == nil,
		}
		if err != nil {
			entry.ErrorMessage = truncate(err.Error(), 500)
		}
		s.usage.Record(entry)
	}
	return content, err
}

// TestConfig sends a short prompt through one stored config.
func (s *AIService) TestConfig(ctx context.Context, llm *models.LLMConfig) (*Completion, error) {
	if llm.APIKey == "" && llm.Provider != models.ProviderOllama {
		return nil, ErrCredentialMissing
	}
	content, err := s.attempt(ctx, llm, SummaryRequest{
		Purpose: models.AIPurposeTest,
		Prompt:  "Responde únicamente con la palabra OK.",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarizerUnavailable, err)
	}
	return &Completion{Content: content, Model: llm.Model, Provider: providerOf(llm)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// callLLM dispatches on the Provider field.
func (s *AIService) callLLM(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
	switch llm.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, llm, prompt)
	case "ollama":
		return s.callOllama(ctx, llm, prompt)
	case "gemini":
		return s.callGemini(ctx, llm, prompt)
	case "azure":
		return s.callAzure(ctx, llm, prompt)
	default:
		// openai and OpenAI-compatible endpoints
		return s.callOpenAI(ctx, llm, prompt)
	}
}

func temperatureOf(llm *models.LLMConfig) float32 {
	if llm.Temperature > 0 {
		return float32(llm.Temperature)
	}
	return 0.3
}

func chatCompletion(ctx context.Context, client *openai.Client, llm *models.LLMConfig, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: llm.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperatureOf(llm),
	}
	if llm.MaxTokens > 0 {
		req.MaxTokens = llm.MaxTokens
	}
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *AIService) callOpenAI(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(llm.APIKey)
	if llm.BaseURL != "" {
		clientConfig.BaseURL = llm.BaseURL
	}
	content, err := chatCompletion(ctx, openai.NewClientWithConfig(clientConfig), llm, prompt)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	return content, nil
}

// callAzure uses Model as the deployment name and BaseURL as the resource
// endpoint.
func (s *AIService) callAzure(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultAzureConfig(llm.APIKey, llm.BaseURL)
	content, err := chatCompletion(ctx, openai.NewClientWithConfig(clientConfig), llm, prompt)
	if err != nil {
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}
	return content, nil
}

func (s *AIService) callAnthropic(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(llm.APIKey)}
	if llm.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(llm.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := int64(llm.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 2048
	}
	model := llm.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (s *AIService) callOllama(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
	baseURL := llm.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := llm.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Options:  map[string]interface{}{"temperature": temperatureOf(llm)},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}

func (s *AIService) callGemini(ctx context.Context, llm *models.LLMConfig, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: llm.APIKey})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}
	model := llm.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}
