package models

import "time"

// Feedback is one stored feedback document. The envelope columns are
// indexed for listing and bulk updates; Document holds the full JSON shape
// as written, so older documents survive schema changes untouched.
type Feedback struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Kind         string    `gorm:"size:100;index" json:"tipo_feedback"`
	ReviewStatus string    `gorm:"size:50;index" json:"review_status"`
	ReviewResult string    `gorm:"type:text" json:"review_result"`
	Document     string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Feedback) TableName() string { return "feedback" }

// Report is a persisted analysis snapshot, immutable once written.
type Report struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Tab             string    `gorm:"size:50;index" json:"tab"`
	AISummary       string    `gorm:"type:text" json:"ai_summary"`
	InfographicHTML string    `gorm:"type:text" json:"infographic_html"`
	TableHTML       string    `gorm:"type:text" json:"table_html"`
	RecordCount     int       `json:"record_count"`
	AIModelUsed     string    `gorm:"size:100" json:"ai_model_used"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

func (Report) TableName() string { return "reports" }
