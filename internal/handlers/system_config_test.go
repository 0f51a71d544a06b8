package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
)

type countingRescheduler struct{ calls int }

func (r *countingRescheduler) Reschedule() error {
	r.calls++
	return nil
}

func newConfigRouter(t *testing.T) (*gin.Engine, *countingRescheduler) {
	t.Helper()
	configs := services.NewSystemConfigService(newTestDB(t))
	sched := &countingRescheduler{}
	h := NewSystemConfigHandler(configs, services.NewHolidayService(), sched)

	r := gin.New()
	g := r.Group("/api/admin/system-config")
	g.GET("/report-schedule", h.GetReportSchedule)
	g.PUT("/report-schedule", h.UpdateReportSchedule)
	g.GET("/general", h.GetGeneral)
	g.PUT("/general", h.UpdateGeneral)
	g.GET("/ldap", h.GetLDAPConfig)
	return r, sched
}

func TestReportSchedule(t *testing.T) {
	router, sched := newConfigRouter(t)

	w, env := doJSON(t, router, "PUT", "/api/admin/system-config/report-schedule", map[string]interface{}{
		"enabled": true, "time": "09:15", "tab": "conversation", "holiday_country": "PT",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	var got struct {
		services.ReportSchedule
		Countries []services.CountryInfo `json:"countries"`
	}
	json.Unmarshal(env.Data, &got)
	if !got.Enabled || got.Time != "09:15" || got.HolidayCountry != "pt" || len(got.Countries) == 0 {
		t.Errorf("schedule = %+v", got)
	}
	if sched.calls != 1 {
		t.Errorf("Reschedule calls = %d, want 1", sched.calls)
	}

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"bad time", map[string]interface{}{"time": "9h"}},
		{"bad tab", map[string]interface{}{"tab": "weekly"}},
		{"unknown country", map[string]interface{}{"holiday_country": "zz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, router, "PUT", "/api/admin/system-config/report-schedule", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status %d", w.Code)
			}
		})
	}
	if sched.calls != 1 {
		t.Errorf("rejected updates rescheduled: %d calls", sched.calls)
	}
}

func TestGeneralSettings(t *testing.T) {
	router, _ := newConfigRouter(t)

	w, env := doJSON(t, router, "PUT", "/api/admin/system-config/general", map[string]int{"active_corpus_criteria": 6, "log_retention_days": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	var got generalSettings
	json.Unmarshal(env.Data, &got)
	if got.ActiveCorpusCriteria != 6 || got.LogRetentionDays != 0 {
		t.Errorf("settings = %+v", got)
	}

	w, _ = doJSON(t, router, "PUT", "/api/admin/system-config/general", map[string]int{"active_corpus_criteria": 12})
	if w.Code != http.StatusBadRequest {
		t.Errorf("12 criteria: status %d", w.Code)
	}
}

func TestLDAPConfigHidesPassword(t *testing.T) {
	router, _ := newConfigRouter(t)
	w, _ := doJSON(t, router, "GET", "/api/admin/system-config/ldap", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var raw map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &raw)
	data, _ := raw["data"].(map[string]interface{})
	if _, ok := data["bind_password"]; ok {
		t.Error("bind password exposed")
	}
	if data["password_set"] != false {
		t.Errorf("password_set = %v", data["password_set"])
	}
}
