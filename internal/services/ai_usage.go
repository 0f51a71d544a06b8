package services

import (
	"sync"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"gorm.io/gorm"
)

// AIUsageService tracks summarizer calls.
type AIUsageService struct {
	db *gorm.DB
	wg sync.WaitGroup
}

func NewAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db}
}

// Record saves a usage log entry asynchronously.
func (s *AIUsageService) Record(entry *models.AIUsageLog) {
	if s.db == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Create(entry).Error; err != nil {
			logger.Infof("[AIUsage] Failed to record usage: %v", err)
		}
	}()
}

// Wait blocks until pending Record writes are done.
func (s *AIUsageService) Wait() {
	s.wg.Wait()
}

// UsageFilter narrows usage queries. Dates are YYYY-MM-DD.
type UsageFilter struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Purpose   string `form:"purpose"`
}

func (s *AIUsageService) scoped(f UsageFilter) *gorm.DB {
	query := s.db.Model(&models.AIUsageLog{})
	if f.StartDate != "" {
		query = query.Where("created_at >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		query = query.Where("created_at <= ?", f.EndDate+" 23:59:59")
	}
	if f.Purpose != "" {
		query = query.Where("purpose = ?", f.Purpose)
	}
	return query
}

type UsageStats struct {
	TotalCalls      int64   `json:"total_calls"`
	PromptChars     int64   `json:"prompt_chars"`
	CompletionChars int64   `json:"completion_chars"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	SuccessRate     float64 `json:"success_rate"`
	SuccessCount    int64   `json:"success_count"`
	FailureCount    int64   `json:"failure_count"`
}

// GetStats returns aggregated usage for the filter.
func (s *AIUsageService) GetStats(f UsageFilter) (*UsageStats, error) {
	var stats UsageStats
	err := s.scoped(f).Select(
		"COUNT(*) as total_calls, " +
			"COALESCE(SUM(prompt_chars), 0) as prompt_chars, " +
			"COALESCE(SUM(completion_chars), 0) as completion_chars, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) as success_count, " +
			"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) as failure_count",
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalCalls) * 100
	}
	return &stats, nil
}

type DailyUsage struct {
	Date         string  `json:"date"`
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// GetDailyTrend returns per-day usage for charting.
func (s *AIUsageService) GetDailyTrend(f UsageFilter) ([]DailyUsage, error) {
	var results []DailyUsage
	err := s.scoped(f).Select(
		"DATE(created_at) as date, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) as failures, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms",
	).Group("DATE(created_at)").Order("date ASC").Scan(&results).Error
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []DailyUsage{}
	}
	return results, nil
}

type ProviderUsage struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	SuccessRate  float64 `json:"success_rate"`
}

// GetProviderBreakdown groups usage by provider and model.
func (s *AIUsageService) GetProviderBreakdown(f UsageFilter) ([]ProviderUsage, error) {
	var results []ProviderUsage
	err := s.scoped(f).Select(
		"provider, model, " +
			"COUNT(*) as calls, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(AVG(CASE WHEN success THEN 100.0 ELSE 0.0 END), 0) as success_rate",
	).Group("provider, model").Order("calls DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []ProviderUsage{}
	}
	return results, nil
}

// Recent returns the latest calls, newest first.
func (s *AIUsageService) Recent(f UsageFilter, limit int) ([]models.AIUsageLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.AIUsageLog
	err := s.scoped(f).Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// CleanupBefore deletes usage logs older than before.
func (s *AIUsageService) CleanupBefore(before time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", before).Delete(&models.AIUsageLog{})
	return result.RowsAffected, result.Error
}
