package slamaint

import "github.com/google/uuid"

const (
	WorkflowName             = "sla_maintenance"
	ActivityProcessExpired   = "sla_process_expired"
	ActivityNotifyNearExpiry = "sla_notify_near_expiry"
)

type Input struct {
	NearExpiryHours float64 `json:"near_expiry_hours,omitempty"`
}

// Summary is what a maintenance run leaves in workflow history. The full
// per-case detail lives in the sla_execution row.
type Summary struct {
	ExecutionID     uuid.UUID `json:"execution_id"`
	ExpiredCount    int       `json:"expired_count"`
	ErrorCount      int       `json:"error_count"`
	DurationSeconds float64   `json:"duration_seconds"`
	Notified        int       `json:"notified"`
}
