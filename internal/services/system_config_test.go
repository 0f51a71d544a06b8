package services

import (
	"testing"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
)

func TestSystemConfigService_ReportSchedule(t *testing.T) {
	s := NewSystemConfigService(newTestDB(t))

	def := s.GetReportSchedule()
	if def.Enabled || def.Time != "18:00" || def.Tab != feedback.TabGeneral || def.HolidayCountry != "es" || def.LLMConfigID != 0 {
		t.Errorf("defaults = %+v", def)
	}

	on := true
	clock := "08:30"
	tab := "corpus"
	country := " PT "
	var llm uint = 3
	if err := s.UpdateReportSchedule(&UpdateReportScheduleRequest{Enabled: &on, Time: &clock, Tab: &tab, HolidayCountry: &country, LLMConfigID: &llm}); err != nil {
		t.Fatalf("UpdateReportSchedule: %v", err)
	}
	got := s.GetReportSchedule()
	if !got.Enabled || got.Time != "08:30" || got.Tab != feedback.TabCorpus || got.HolidayCountry != "pt" || got.LLMConfigID != 3 {
		t.Errorf("schedule = %+v", got)
	}

	bad := "25:00"
	if err := s.UpdateReportSchedule(&UpdateReportScheduleRequest{Time: &bad}); err == nil {
		t.Error("invalid time accepted")
	}
	var none uint
	s.UpdateReportSchedule(&UpdateReportScheduleRequest{LLMConfigID: &none})
	if s.GetReportSchedule().LLMConfigID != 0 {
		t.Error("llm config id not cleared")
	}
}

func TestSystemConfigService_ActiveCorpusCriteria(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"11", 11},
		{"5", 5},
		{"0", feedback.CorpusCriteriaCount},
		{"40", feedback.CorpusCriteriaCount},
		{"abc", feedback.CorpusCriteriaCount},
	}
	s := NewSystemConfigService(newTestDB(t))
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if err := s.Set(KeyCorpusActiveCriteria, tt.value); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got := s.ActiveCorpusCriteria(); got != tt.want {
				t.Errorf("ActiveCorpusCriteria = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSystemConfigService_SetCreatesMissingKey(t *testing.T) {
	s := NewSystemConfigService(newTestDB(t))
	if got := s.GetWithDefault("custom_key", "fallback"); got != "fallback" {
		t.Errorf("missing key = %q", got)
	}
	if err := s.Set("custom_key", "42"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.GetInt("custom_key", 0) != 42 || s.GetUint("custom_key") != 42 {
		t.Error("custom_key not stored")
	}
	ldap, err := s.GetByGroup("ldap")
	if err != nil || len(ldap) != 8 {
		t.Errorf("ldap group = %d rows, %v", len(ldap), err)
	}
}

func TestFeedbackService_UsesConfiguredCriteria(t *testing.T) {
	configs := NewSystemConfigService(newTestDB(t))
	configs.Set(KeyCorpusActiveCriteria, "3")
	s := NewFeedbackService(nil, configs)

	opts := s.Options()
	if opts.ActiveCriteria != 3 || len(opts.Criteria) != 3 {
		t.Fatalf("options criteria = %d/%d", opts.ActiveCriteria, len(opts.Criteria))
	}

	sub := feedback.Submission{Device: string(feedback.DeviceTablet), Kind: string(feedback.KindCorpus), C1: 5, C2: 4, C3: 3}
	if _, err := s.Preview(sub); err != nil {
		t.Errorf("three rated criteria rejected: %v", err)
	}
	sub.C3 = 0
	if _, err := s.Preview(sub); err == nil {
		t.Error("unrated active criterion accepted")
	}
}
