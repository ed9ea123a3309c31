package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/esteira-backend/internal/clients/redis"
	"github.com/yungbote/esteira-backend/internal/data/db"
	"github.com/yungbote/esteira-backend/internal/jobs/worker"
	"github.com/yungbote/esteira-backend/internal/observability"
	"github.com/yungbote/esteira-backend/internal/platform/envutil"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/services"
	"github.com/yungbote/esteira-backend/internal/temporalx"
)

type Config struct {
	Port    string `yaml:"port" validate:"required"`
	LogMode string `yaml:"log_mode"`

	DBDriver   string            `yaml:"db_driver" validate:"oneof=postgres sqlite"`
	SQLitePath string            `yaml:"sqlite_path" validate:"required_if=DBDriver sqlite"`
	Postgres   db.PostgresConfig `yaml:"postgres"`

	DefaultLockHours float64 `yaml:"default_lock_hours" validate:"gt=0,lte=720"`
	BusinessTimezone string  `yaml:"business_timezone" validate:"required"`

	SlaSchedule     string  `yaml:"sla_schedule" validate:"required"`
	NearExpiryHours float64 `yaml:"sla_near_expiry_hours" validate:"gte=0"`
	StatsDays       int     `yaml:"sla_stats_days" validate:"gte=1,lte=365"`
	SlaBatchSize    int     `yaml:"sla_batch_size" validate:"gte=0"`

	ImportConcurrency int `yaml:"import_concurrency" validate:"gte=1,lte=64"`

	AllowedOrigins []string `yaml:"allowed_origins"`

	Redis    redis.Config             `yaml:"redis"`
	Temporal temporalx.Config         `yaml:"temporal"`
	Otel     observability.OtelConfig `yaml:"otel"`

	location *time.Location
}

func defaultConfig() Config {
	return Config{
		Port:     "8080",
		LogMode:  "development",
		DBDriver: "postgres",
		Postgres: db.PostgresConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Name:         "esteira",
			SSLMode:      "disable",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			ConnMaxLife:  30 * time.Minute,
		},
		DefaultLockHours:  services.DefaultLockHours,
		BusinessTimezone:  "America/Sao_Paulo",
		SlaSchedule:       worker.DefaultSchedule,
		NearExpiryHours:   4,
		StatsDays:         7,
		ImportConcurrency: 4,
		Redis: redis.Config{
			ExpiryChannel: redis.DefaultExpiryChannel,
			RunLockTTL:    redis.DefaultRunLockTTL,
		},
		Temporal: temporalx.LoadConfig(),
		Otel:     observability.LoadOtelConfig(),
	}
}

// LoadConfig layers built-in defaults, then the YAML file named by
// ESTEIRA_CONFIG_FILE, then environment variables.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := envutil.String("ESTEIRA_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}

	applyEnv(&cfg)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}
	cfg.location = loc
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.DBDriver = strings.ToLower(envutil.String("DB_DRIVER", cfg.DBDriver))
	cfg.SQLitePath = envutil.String("SQLITE_PATH", cfg.SQLitePath)
	cfg.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = envutil.String("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Postgres.Name)
	cfg.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.Postgres.SSLMode)
	cfg.Postgres.MaxOpenConns = envutil.Int("POSTGRES_MAX_OPEN_CONNS", cfg.Postgres.MaxOpenConns)
	cfg.Postgres.MaxIdleConns = envutil.Int("POSTGRES_MAX_IDLE_CONNS", cfg.Postgres.MaxIdleConns)
	cfg.Postgres.ConnMaxLife = envutil.Duration("POSTGRES_CONN_MAX_LIFE", cfg.Postgres.ConnMaxLife)

	cfg.DefaultLockHours = envutil.Float("DEFAULT_LOCK_HOURS", cfg.DefaultLockHours)
	cfg.BusinessTimezone = envutil.String("BUSINESS_TIMEZONE", cfg.BusinessTimezone)

	cfg.SlaSchedule = envutil.String("SLA_MAINTENANCE_SCHEDULE", cfg.SlaSchedule)
	cfg.NearExpiryHours = envutil.Float("SLA_NEAR_EXPIRY_HOURS", cfg.NearExpiryHours)
	cfg.StatsDays = envutil.Int("SLA_STATS_DAYS", cfg.StatsDays)
	cfg.SlaBatchSize = envutil.Int("SLA_BATCH_SIZE", cfg.SlaBatchSize)
	cfg.ImportConcurrency = envutil.Int("IMPORT_CONCURRENCY", cfg.ImportConcurrency)

	if raw := envutil.String("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.ExpiryChannel = envutil.String("REDIS_EXPIRY_CHANNEL", cfg.Redis.ExpiryChannel)
	cfg.Redis.RunLockTTL = envutil.Duration("SLA_RUN_LOCK_TTL", cfg.Redis.RunLockTTL)

	cfg.Temporal.Address = envutil.String("TEMPORAL_ADDRESS", cfg.Temporal.Address)
	cfg.Temporal.Namespace = envutil.String("TEMPORAL_NAMESPACE", cfg.Temporal.Namespace)
	cfg.Temporal.TaskQueue = envutil.String("TEMPORAL_TASK_QUEUE", cfg.Temporal.TaskQueue)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
}

// Location is the business time zone. It is only set by LoadConfig.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
