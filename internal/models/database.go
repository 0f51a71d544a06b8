package models

import (
	"fmt"

	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database without touching the package
// level handle.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	logLevel := logger.Warn
	if cfg.SQLLog {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate creates or updates every table on db.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Feedback{},
		&Report{},
		&LLMConfig{},
		&SystemConfig{},
		&SystemLog{},
		&AIUsageLog{},
		&SchedulerLock{},
	)
}

func AutoMigrate() error {
	return Migrate(DB)
}

func GetDB() *gorm.DB {
	return DB
}

// DefaultSystemConfigs are the runtime settings seeded on first boot.
var DefaultSystemConfigs = []SystemConfig{
	{Key: "ldap_enabled", Value: "false", Type: "bool", Group: "ldap", Label: "Enable LDAP Authentication"},
	{Key: "ldap_host", Value: "", Type: "string", Group: "ldap", Label: "LDAP Server Host"},
	{Key: "ldap_port", Value: "389", Type: "int", Group: "ldap", Label: "LDAP Server Port"},
	{Key: "ldap_base_dn", Value: "", Type: "string", Group: "ldap", Label: "LDAP Base DN"},
	{Key: "ldap_bind_dn", Value: "", Type: "string", Group: "ldap", Label: "LDAP Bind DN"},
	{Key: "ldap_bind_password", Value: "", Type: "string", Group: "ldap", Label: "LDAP Bind Password"},
	{Key: "ldap_user_filter", Value: "(uid=%s)", Type: "string", Group: "ldap", Label: "LDAP User Filter"},
	{Key: "ldap_use_ssl", Value: "false", Type: "bool", Group: "ldap", Label: "Use SSL/TLS"},
	{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
	{Key: "corpus_active_criteria", Value: "11", Type: "int", Group: "feedback", Label: "Corpus criteria required on submit"},
	{Key: "report_schedule_enabled", Value: "false", Type: "bool", Group: "report", Label: "Enable Scheduled Reports"},
	{Key: "report_schedule_time", Value: "18:00", Type: "string", Group: "report", Label: "Scheduled Report Time (HH:MM)"},
	{Key: "report_schedule_tab", Value: "general", Type: "string", Group: "report", Label: "Scheduled Report Tab"},
	{Key: "report_holiday_country", Value: "es", Type: "string", Group: "report", Label: "Holiday Calendar Country"},
	{Key: "report_llm_config_id", Value: "", Type: "int", Group: "report", Label: "LLM Config for Reports"},
	{Key: "assist_llm_config_id", Value: "", Type: "int", Group: "feedback", Label: "LLM Config for Review Assist"},
}

// SeedDefaultData inserts the default system configs that are missing.
func SeedDefaultData() error {
	return Seed(DB)
}

// Seed inserts the default system configs that are missing on db.
func Seed(db *gorm.DB) error {
	for _, cfg := range DefaultSystemConfigs {
		var count int64
		db.Model(&SystemConfig{}).Where(&SystemConfig{Key: cfg.Key}).Count(&count)
		if count == 0 {
			row := cfg
			if err := db.Create(&row).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
