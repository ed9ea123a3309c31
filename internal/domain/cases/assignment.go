package cases

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type AssignmentReason string

const (
	ReasonManual     AssignmentReason = "manual"
	ReasonExpired    AssignmentReason = "expired"
	ReasonTransition AssignmentReason = "transition"
)

func (r AssignmentReason) Valid() bool {
	switch r {
	case ReasonManual, ReasonExpired, ReasonTransition:
		return true
	default:
		return false
	}
}

// AssignmentEntry is one claim of a case. ReleasedAt and Reason stay empty
// while the claim is held.
type AssignmentEntry struct {
	UserID     uuid.UUID        `json:"user_id"`
	AssignedAt time.Time        `json:"assigned_at"`
	ReleasedAt *time.Time       `json:"released_at,omitempty"`
	Reason     AssignmentReason `json:"reason,omitempty"`
}

// AssignmentHistory holds one entry per claim, oldest first. Case.RecordClaim
// appends an open entry; a release fills ReleasedAt and Reason on the trailing
// open entry instead of appending. Closed entries are never modified.
type AssignmentHistory []AssignmentEntry

func (h AssignmentHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]AssignmentEntry(h))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (h *AssignmentHistory) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*h = AssignmentHistory{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("assignment_history: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*h = AssignmentHistory{}
		return nil
	}
	var entries []AssignmentEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("assignment_history: %w", err)
	}
	*h = entries
	return nil
}

func (AssignmentHistory) GormDataType() string { return "json" }

func (AssignmentHistory) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

// Entries returns a copy.
func (h AssignmentHistory) Entries() []AssignmentEntry {
	out := make([]AssignmentEntry, len(h))
	copy(out, h)
	return out
}

// openIndex returns the index of the trailing unreleased entry, or -1.
func (h AssignmentHistory) openIndex() int {
	if len(h) == 0 {
		return -1
	}
	last := len(h) - 1
	if h[last].ReleasedAt == nil {
		return last
	}
	return -1
}
