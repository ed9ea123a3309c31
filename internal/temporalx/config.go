package temporalx

import (
	"strings"
	"time"

	"github.com/yungbote/esteira-backend/internal/platform/envutil"
)

type Config struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`

	ClientCertPath string `yaml:"client_cert_path"`
	ClientKeyPath  string `yaml:"client_key_path"`
	ClientCAPath   string `yaml:"client_ca_path"`

	AutoRegisterNamespace bool `yaml:"auto_register_namespace"`
	RetentionDays         int  `yaml:"retention_days"`

	DialTimeout time.Duration `yaml:"dial_timeout"`
	DialMaxWait time.Duration `yaml:"dial_max_wait"`
	Backoff     time.Duration `yaml:"backoff"`
	BackoffMax  time.Duration `yaml:"backoff_max"`

	WorkerConcurrency int `yaml:"worker_concurrency"`

	// MaintenanceWorkflowID is the fixed id of the SLA maintenance cron
	// workflow, so restarts attach to the running one.
	MaintenanceWorkflowID string `yaml:"maintenance_workflow_id"`
}

func LoadConfig() Config {
	return Config{
		Address:   strings.TrimSpace(envutil.String("TEMPORAL_ADDRESS", "")),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "esteira"),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "esteira"),

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", ""),

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		RetentionDays:         envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7),

		DialTimeout: envutil.Duration("TEMPORAL_DIAL_TIMEOUT", 5*time.Second),
		DialMaxWait: envutil.Duration("TEMPORAL_DIAL_MAX_WAIT", 60*time.Second),
		Backoff:     envutil.Duration("TEMPORAL_BACKOFF", 250*time.Millisecond),
		BackoffMax:  envutil.Duration("TEMPORAL_BACKOFF_MAX", 5*time.Second),

		WorkerConcurrency:     envutil.Int("TEMPORAL_WORKER_CONCURRENCY", 2),
		MaintenanceWorkflowID: envutil.String("TEMPORAL_SLA_WORKFLOW_ID", "esteira-sla-maintenance"),
	}
}

// Enabled reports whether a Temporal address was configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Address) != "" }

func (c Config) hasTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}
