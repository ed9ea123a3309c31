package cases

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExecutionType string

const (
	ExecutionAutomatic ExecutionType = "automatic"
	ExecutionManual    ExecutionType = "manual"
)

// SlaExecution summarizes one maintenance run of the SLA scheduler.
// ExecutedByUserID is nil for automated runs.
type SlaExecution struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExecutedAt        time.Time      `gorm:"column:executed_at;not null;index" json:"executed_at"`
	ExecutionType     ExecutionType  `gorm:"column:execution_type;type:varchar(16);not null" json:"execution_type"`
	CasesExpiredCount int            `gorm:"column:cases_expired_count;not null" json:"cases_expired_count"`
	CasesReleased     datatypes.JSON `gorm:"column:cases_released" json:"cases_released"`
	ExecutedByUserID  *uuid.UUID     `gorm:"type:uuid;column:executed_by_user_id" json:"executed_by_user_id,omitempty"`
	DurationSeconds   float64        `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	Details           datatypes.JSON `gorm:"column:details" json:"details"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
}

func (SlaExecution) TableName() string { return "sla_execution" }

func (s *SlaExecution) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SlaCaseError struct {
	CaseID uuid.UUID `json:"case_id"`
	Error  string    `json:"error"`
}

type SlaExecutionDetails struct {
	Scanned   int            `json:"scanned"`
	Errors    []SlaCaseError `json:"errors"`
	Cancelled bool           `json:"cancelled,omitempty"`
	Trigger   string         `json:"trigger,omitempty"`
}

func (s *SlaExecution) SetReleased(ids []uuid.UUID) error {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	s.CasesReleased = datatypes.JSON(raw)
	return nil
}

func (s *SlaExecution) ReleasedIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(s.CasesReleased) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(s.CasesReleased, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SlaExecution) SetDetails(d SlaExecutionDetails) error {
	if d.Errors == nil {
		d.Errors = []SlaCaseError{}
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	s.Details = datatypes.JSON(raw)
	return nil
}

func (s *SlaExecution) DecodeDetails() (SlaExecutionDetails, error) {
	var d SlaExecutionDetails
	if len(s.Details) == 0 {
		return d, nil
	}
	err := json.Unmarshal(s.Details, &d)
	return d, err
}
