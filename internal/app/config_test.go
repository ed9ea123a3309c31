package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ESTEIRA_CONFIG_FILE", "PORT", "DB_DRIVER", "SQLITE_PATH", "DEFAULT_LOCK_HOURS",
		"BUSINESS_TIMEZONE", "SLA_MAINTENANCE_SCHEDULE", "SLA_NEAR_EXPIRY_HOURS", "IMPORT_CONCURRENCY",
		"REDIS_ADDR", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DefaultLockHours != 72 {
		t.Fatalf("DefaultLockHours: want=72 got=%v", cfg.DefaultLockHours)
	}
	if cfg.SlaSchedule != "@every 15m" {
		t.Fatalf("SlaSchedule: want=@every 15m got=%q", cfg.SlaSchedule)
	}
	if cfg.Location().String() != "America/Sao_Paulo" {
		t.Fatalf("Location: want=America/Sao_Paulo got=%s", cfg.Location())
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("Redis should be disabled without REDIS_ADDR")
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "esteira.yaml")
	body := []byte(`
port: "9090"
db_driver: sqlite
sqlite_path: /tmp/esteira.db
default_lock_hours: 48
sla_schedule: "@every 5m"
postgres:
  conn_max_life: 10m
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ESTEIRA_CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("Port: env should win, want=7070 got=%s", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" || cfg.SQLitePath != "/tmp/esteira.db" {
		t.Fatalf("driver: want=sqlite:/tmp/esteira.db got=%s:%s", cfg.DBDriver, cfg.SQLitePath)
	}
	if cfg.DefaultLockHours != 48 || cfg.SlaSchedule != "@every 5m" {
		t.Fatalf("file values: lock=%v schedule=%q", cfg.DefaultLockHours, cfg.SlaSchedule)
	}
	if cfg.Postgres.ConnMaxLife != 10*time.Minute {
		t.Fatalf("ConnMaxLife: want=10m got=%v", cfg.Postgres.ConnMaxLife)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("LoadConfig(DB_DRIVER=mysql): want error")
	}

	clearEnv(t)
	t.Setenv("BUSINESS_TIMEZONE", "Mars/Olympus")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("LoadConfig(bad tz): want error")
	}
}
