package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != "gorm" {
		t.Errorf("Store.Backend = %q, want gorm", cfg.Store.Backend)
	}
	if cfg.AI.ReportSampleSize != 20 {
		t.Errorf("ReportSampleSize = %d, want 20", cfg.AI.ReportSampleSize)
	}
	if GlobalConfig != cfg {
		t.Error("Load should set GlobalConfig")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: \"9090\"\nstore:\n  backend: memory\n  seed_mock: true\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Store.Backend != "memory" || !cfg.Store.SeedMock {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host default lost: %q", cfg.Server.Host)
	}
	if cfg.AI.Breaker.ConsecutiveFailures != 3 {
		t.Errorf("breaker default lost: %+v", cfg.AI.Breaker)
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_URL", "redis://:secret@cache:6380/2")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "cache:6380" || cfg.Redis.Password != "secret" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestAIConfig_Timeout(t *testing.T) {
	if got := (AIConfig{}).Timeout(); got != 60*time.Second {
		t.Errorf("default timeout = %v", got)
	}
	if got := (AIConfig{TimeoutSeconds: 5}).Timeout(); got != 5*time.Second {
		t.Errorf("timeout = %v", got)
	}
}
