package services

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const defaultLogRetentionDays = 30

var auditDB *gorm.DB

// InitSystemLogger sets the database used by LogInfo, LogWarning and LogError.
func InitSystemLogger(db *gorm.DB) {
	auditDB = db
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog(models.LogLevelInfo, module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog(models.LogLevelWarning, module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog(models.LogLevelError, module, action, message, userID, ip, userAgent, extra)
}

func writeLog(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	if auditDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: truncate(userAgent, 500),
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := auditDB.Create(entry).Error; err != nil {
		logger.Warnf("[SystemLog] Failed to write %s log: %v", level, err)
	}
}

type SystemLogService struct {
	db      *gorm.DB
	configs *SystemConfigService
}

func NewSystemLogService(db *gorm.DB, configs *SystemConfigService) *SystemLogService {
	return &SystemLogService{db: db, configs: configs}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level" binding:"omitempty,oneof=info warning error"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.SystemLog{})
	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var logs []models.SystemLog
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

func (s *SystemLogService) GetModules() ([]string, error) {
	var modules []string
	if err := s.db.Model(&models.SystemLog{}).Distinct("module").Order("module ASC").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CleanupOldLogs deletes system and AI usage logs older than retentionDays.
// A non-positive retention disables cleanup.
func (s *SystemLogService) CleanupOldLogs(retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	usage := s.db.Where("created_at < ?", cutoff).Delete(&models.AIUsageLog{})
	if usage.Error != nil {
		return result.RowsAffected, usage.Error
	}
	return result.RowsAffected + usage.RowsAffected, nil
}

func (s *SystemLogService) RetentionDays() int {
	if s.configs == nil {
		return defaultLogRetentionDays
	}
	return s.configs.GetInt(KeyLogRetentionDays, defaultLogRetentionDays)
}

func (s *SystemLogService) runCleanup() {
	days := s.RetentionDays()
	if days <= 0 {
		logger.Infof("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return
	}
	deleted, err := s.CleanupOldLogs(days, time.Now())
	if err != nil {
		logger.Errorf("[SystemLog] Failed to cleanup old logs: %v", err)
		return
	}
	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, days)
	}
}

// StartCleanupScheduler purges old logs now and every night at 03:30.
// The returned cron must be stopped on shutdown.
func (s *SystemLogService) StartCleanupScheduler() (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("30 3 * * *", s.runCleanup); err != nil {
		return nil, err
	}
	go s.runCleanup()
	c.Start()
	return c, nil
}
