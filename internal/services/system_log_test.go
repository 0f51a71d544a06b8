package services

import (
	"testing"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/models"
)

func TestSystemLog_WriteAndList(t *testing.T) {
	db := newTestDB(t)
	InitSystemLogger(db)
	defer InitSystemLogger(nil)

	uid := uint(1)
	LogInfo("auth", "login", "Usuario admin ha iniciado sesión", &uid, "127.0.0.1", "go-test", map[string]string{"via": "local"})
	LogWarning("auth", "login_failed", "Contraseña incorrecta", nil, "127.0.0.1", "go-test", nil)
	LogError("report", "generate", "fallo", nil, "", "", nil)

	s := NewSystemLogService(db, NewSystemConfigService(db))
	resp, err := s.List(&SystemLogListRequest{Module: "auth"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if resp.Total != 2 || resp.PageSize != 20 {
		t.Errorf("List = %+v", resp)
	}

	warn, _ := s.List(&SystemLogListRequest{Level: models.LogLevelWarning})
	if warn.Total != 1 || warn.Items[0].Action != "login_failed" {
		t.Errorf("warnings = %+v", warn.Items)
	}

	modules, err := s.GetModules()
	if err != nil || len(modules) != 2 || modules[0] != "auth" {
		t.Errorf("modules = %v, %v", modules, err)
	}
}

func TestSystemLog_Cleanup(t *testing.T) {
	db := newTestDB(t)
	s := NewSystemLogService(db, NewSystemConfigService(db))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	db.Create(&models.SystemLog{Level: models.LogLevelInfo, Module: "a", Action: "x", CreatedAt: now.AddDate(0, 0, -40)})
	db.Create(&models.SystemLog{Level: models.LogLevelInfo, Module: "a", Action: "y", CreatedAt: now.AddDate(0, 0, -1)})
	db.Create(&models.AIUsageLog{Purpose: models.AIPurposeReport, CreatedAt: now.AddDate(0, 0, -90)})

	if n, _ := s.CleanupOldLogs(0, now); n != 0 {
		t.Errorf("retention 0 deleted %d rows", n)
	}
	n, err := s.CleanupOldLogs(s.RetentionDays(), now)
	if err != nil {
		t.Fatalf("CleanupOldLogs: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	var left int64
	db.Model(&models.SystemLog{}).Count(&left)
	if left != 1 {
		t.Errorf("remaining system logs = %d", left)
	}
}

func TestAIUsageService_Stats(t *testing.T) {
	db := newTestDB(t)
	s := NewAIUsageService(db)
	day := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	s.Record(&models.AIUsageLog{Purpose: models.AIPurposeReport, Provider: "openai", Model: "gpt", PromptChars: 100, CompletionChars: 40, LatencyMs: 200, Success: true, CreatedAt: day})
	s.Record(&models.AIUsageLog{Purpose: models.AIPurposeReport, Provider: "openai", Model: "gpt", PromptChars: 50, LatencyMs: 400, Success: false, CreatedAt: day})
	s.Record(&models.AIUsageLog{Purpose: models.AIPurposeAssist, Provider: "anthropic", Model: "claude", PromptChars: 10, CompletionChars: 5, LatencyMs: 300, Success: true, CreatedAt: day.AddDate(0, 0, 1)})
	s.Wait()

	stats, err := s.GetStats(UsageFilter{})
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalCalls != 3 || stats.PromptChars != 160 || stats.FailureCount != 1 || stats.AvgLatencyMs != 300 {
		t.Errorf("stats = %+v", stats)
	}

	reports, _ := s.GetStats(UsageFilter{Purpose: models.AIPurposeReport})
	if reports.TotalCalls != 2 || reports.SuccessRate != 50 {
		t.Errorf("report stats = %+v", reports)
	}

	providers, err := s.GetProviderBreakdown(UsageFilter{})
	if err != nil || len(providers) != 2 || providers[0].Provider != "openai" || providers[0].Calls != 2 {
		t.Errorf("providers = %+v, %v", providers, err)
	}

	recent, err := s.Recent(UsageFilter{}, 2)
	if err != nil || len(recent) != 2 || recent[0].Provider != "anthropic" {
		t.Errorf("recent = %+v, %v", recent, err)
	}
}
