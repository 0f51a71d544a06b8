package models

import "time"

// AI usage purposes.
const (
	AIPurposeReport = "report"
	AIPurposeAssist = "assist"
	AIPurposeTest   = "test"
)

// AIUsageLog records each summarizer call.
type AIUsageLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Purpose         string    `gorm:"size:20;index" json:"purpose"`
	FeedbackID      string    `gorm:"size:64;index" json:"feedback_id,omitempty"`
	LLMConfigID     uint      `gorm:"index" json:"llm_config_id"`
	Provider        string    `gorm:"size:50" json:"provider"`
	Model           string    `gorm:"size:100" json:"model"`
	PromptChars     int       `json:"prompt_chars"`
	CompletionChars int       `json:"completion_chars"`
	LatencyMs       int64     `json:"latency_ms"`
	Success         bool      `gorm:"index" json:"success"`
	ErrorMessage    string    `gorm:"size:500" json:"error_message,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

func (AIUsageLog) TableName() string { return "ai_usage_logs" }
