package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"gorm.io/gorm"
)

// Runtime setting keys stored in system_configs.
const (
	KeyCorpusActiveCriteria  = "corpus_active_criteria"
	KeyLogRetentionDays      = "log_retention_days"
	KeyReportScheduleEnabled = "report_schedule_enabled"
	KeyReportScheduleTime    = "report_schedule_time"
	KeyReportScheduleTab     = "report_schedule_tab"
	KeyReportHolidayCountry  = "report_holiday_country"
	KeyReportLLMConfigID     = "report_llm_config_id"
	KeyAssistLLMConfigID     = "assist_llm_config_id"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Key: key}).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetInt returns key as an int, or defaultValue when unset or unparseable.
func (s *SystemConfigService) GetInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s.GetWithDefault(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

func (s *SystemConfigService) GetBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s.GetWithDefault(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

// GetUint returns key as an id, 0 when unset.
func (s *SystemConfigService) GetUint(key string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s.GetWithDefault(key, "")), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where(&models.SystemConfig{Key: key}).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Group: group}).Order("id ASC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// ActiveCorpusCriteria is how many corpus criteria a submission must rate.
func (s *SystemConfigService) ActiveCorpusCriteria() int {
	n := s.GetInt(KeyCorpusActiveCriteria, feedback.CorpusCriteriaCount)
	if n <= 0 || n > feedback.CorpusCriteriaCount {
		return feedback.CorpusCriteriaCount
	}
	return n
}

type LDAPConfigResponse struct {
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	BaseDN      string `json:"base_dn"`
	BindDN      string `json:"bind_dn"`
	UserFilter  string `json:"user_filter"`
	UseSSL      bool   `json:"use_ssl"`
	PasswordSet bool   `json:"password_set"`
}

func (s *SystemConfigService) GetLDAPConfig() *LDAPConfigResponse {
	return &LDAPConfigResponse{
		Enabled:     s.GetBool("ldap_enabled", false),
		Host:        s.GetWithDefault("ldap_host", ""),
		Port:        s.GetInt("ldap_port", 389),
		BaseDN:      s.GetWithDefault("ldap_base_dn", ""),
		BindDN:      s.GetWithDefault("ldap_bind_dn", ""),
		UserFilter:  s.GetWithDefault("ldap_user_filter", "(uid=%s)"),
		UseSSL:      s.GetBool("ldap_use_ssl", false),
		PasswordSet: s.GetWithDefault("ldap_bind_password", "") != "",
	}
}

// ReportSchedule is the runtime configuration of scheduled reports.
type ReportSchedule struct {
	Enabled        bool         `json:"enabled"`
	Time           string       `json:"time"`
	Tab            feedback.Tab `json:"tab"`
	HolidayCountry string       `json:"holiday_country"`
	LLMConfigID    uint         `json:"llm_config_id"`
}

func (s *SystemConfigService) GetReportSchedule() ReportSchedule {
	tab, ok := feedback.ParseTab(s.GetWithDefault(KeyReportScheduleTab, string(feedback.TabGeneral)))
	if !ok {
		tab = feedback.TabGeneral
	}
	return ReportSchedule{
		Enabled:        s.GetBool(KeyReportScheduleEnabled, false),
		Time:           s.GetWithDefault(KeyReportScheduleTime, "18:00"),
		Tab:            tab,
		HolidayCountry: s.GetWithDefault(KeyReportHolidayCountry, "es"),
		LLMConfigID:    s.GetUint(KeyReportLLMConfigID),
	}
}

type UpdateReportScheduleRequest struct {
	Enabled        *bool   `json:"enabled"`
	Time           *string `json:"time" binding:"omitempty,datetime=15:04"`
	Tab            *string `json:"tab" binding:"omitempty,oneof=general incident iteration conversation corpus"`
	HolidayCountry *string `json:"holiday_country"`
	LLMConfigID    *uint   `json:"llm_config_id"`
}

func (s *SystemConfigService) UpdateReportSchedule(req *UpdateReportScheduleRequest) error {
	if req.Enabled != nil {
		if err := s.Set(KeyReportScheduleEnabled, strconv.FormatBool(*req.Enabled)); err != nil {
			return err
		}
	}
	if req.Time != nil {
		if _, _, err := parseClock(*req.Time); err != nil {
			return err
		}
		if err := s.Set(KeyReportScheduleTime, *req.Time); err != nil {
			return err
		}
	}
	if req.Tab != nil {
		tab, ok := feedback.ParseTab(*req.Tab)
		if !ok {
			return fmt.Errorf("unknown report tab: %s", *req.Tab)
		}
		if err := s.Set(KeyReportScheduleTab, string(tab)); err != nil {
			return err
		}
	}
	if req.HolidayCountry != nil {
		if err := s.Set(KeyReportHolidayCountry, strings.ToLower(strings.TrimSpace(*req.HolidayCountry))); err != nil {
			return err
		}
	}
	if req.LLMConfigID != nil {
		v := ""
		if *req.LLMConfigID > 0 {
			v = strconv.FormatUint(uint64(*req.LLMConfigID), 10)
		}
		if err := s.Set(KeyReportLLMConfigID, v); err != nil {
			return err
		}
	}
	return nil
}

// parseClock parses "HH:MM".
func parseClock(v string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return hour, minute, nil
}
