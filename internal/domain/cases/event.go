package cases

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventAssignmentClaimed  = "assignment.claimed"
	EventAssignmentReleased = "assignment.released"
	EventAssignmentExpired  = "assignment.expired"
	EventFinanceReopened    = "finance.reopened"
	EventImportCaseCreated  = "import.case_created"
	EventAnnotation         = "case.annotation"
)

// CaseEvent is the append-only audit record of a case. Rows are inserted
// once and never updated or deleted; history is rebuilt from them.
type CaseEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    uuid.UUID      `gorm:"type:uuid;column:case_id;not null;index" json:"case_id"`
	Type      string         `gorm:"column:type;not null;index" json:"type"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid;column:created_by;index" json:"created_by,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (CaseEvent) TableName() string { return "case_event" }

func (e *CaseEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EventPayload is the closed set of payload shapes a CaseEvent may carry.
type EventPayload interface {
	payloadKind() payloadKind
}

type payloadKind string

const (
	kindTransition payloadKind = "transition"
	kindAssignment payloadKind = "assignment"
	kindReopen     payloadKind = "reopen"
	kindImport     payloadKind = "import"
	kindAnnotation payloadKind = "annotation"
)

type TransitionPayload struct {
	From Status         `json:"from"`
	To   Status         `json:"to"`
	Note string         `json:"note,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

type AssignmentPayload struct {
	UserID         uuid.UUID        `json:"user_id"`
	PreviousUserID *uuid.UUID       `json:"previous_user_id,omitempty"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	LockHours      float64          `json:"lock_hours,omitempty"`
	Reason         AssignmentReason `json:"reason,omitempty"`
	Refreshed      bool             `json:"refreshed,omitempty"`
}

type ReopenPayload struct {
	From           Status         `json:"from"`
	Reason         string         `json:"reason,omitempty"`
	ContractID     *uuid.UUID     `json:"contract_id,omitempty"`
	ContractStatus ContractStatus `json:"contract_status,omitempty"`
}

type ImportPayload struct {
	ImportBatchID *uuid.UUID `json:"import_batch_id,omitempty"`
	EntityCode    string     `json:"entity_code,omitempty"`
	RefMonth      int        `json:"ref_month,omitempty"`
	RefYear       int        `json:"ref_year,omitempty"`
	Matricula     string     `json:"matricula,omitempty"`
	Orgao         string     `json:"orgao,omitempty"`
}

// Annotation is the loosely structured fallback for notes and any event
// type without a dedicated payload.
type Annotation map[string]any

func (TransitionPayload) payloadKind() payloadKind { return kindTransition }
func (AssignmentPayload) payloadKind() payloadKind { return kindAssignment }
func (ReopenPayload) payloadKind() payloadKind     { return kindReopen }
func (ImportPayload) payloadKind() payloadKind     { return kindImport }
func (Annotation) payloadKind() payloadKind        { return kindAnnotation }

func kindForType(eventType string) payloadKind {
	switch {
	case strings.HasPrefix(eventType, "assignment."):
		return kindAssignment
	case eventType == EventFinanceReopened:
		return kindReopen
	case strings.HasPrefix(eventType, "import."):
		return kindImport
	}
	if dot := strings.IndexByte(eventType, '.'); dot > 0 {
		st := Status(eventType[dot+1:])
		if st.Valid() && st.TransitionEventType() == eventType {
			return kindTransition
		}
	}
	return kindAnnotation
}

// NewCaseEvent builds an event row, refusing a payload whose shape does not
// belong to eventType. A nil actor means the system acted.
func NewCaseEvent(caseID uuid.UUID, eventType string, payload EventPayload, actor *uuid.UUID, at time.Time) (*CaseEvent, error) {
	if caseID == uuid.Nil {
		return nil, Validation("case event: missing case_id")
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return nil, Validation("case event: missing type")
	}
	if payload == nil {
		payload = Annotation{}
	}
	if want := kindForType(eventType); payload.payloadKind() != want {
		return nil, Validation("case event %s: payload kind %s, want %s", eventType, payload.payloadKind(), want)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("case event %s: encode payload: %w", eventType, err)
	}
	var createdBy *uuid.UUID
	if actor != nil && *actor != uuid.Nil {
		a := *actor
		createdBy = &a
	}
	return &CaseEvent{
		CaseID:    caseID,
		Type:      eventType,
		Payload:   datatypes.JSON(raw),
		CreatedBy: createdBy,
		CreatedAt: at,
	}, nil
}

// Decode returns the typed payload for the event's type.
func (e *CaseEvent) Decode() (EventPayload, error) {
	return DecodePayload(e.Type, e.Payload)
}

func DecodePayload(eventType string, raw []byte) (EventPayload, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch kindForType(eventType) {
	case kindTransition:
		var p TransitionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return p, nil
	case kindAssignment:
		var p AssignmentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return p, nil
	case kindReopen:
		var p ReopenPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return p, nil
	case kindImport:
		var p ImportPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return p, nil
	default:
		p := Annotation{}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return p, nil
	}
}
