package cases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Source string

const (
	SourceImport Source = "import"
	SourceManual Source = "manual"
)

// Case is one unit of work moving through the esteira. Rows are never
// deleted; terminal statuses close them.
type Case struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID     uuid.UUID  `gorm:"type:uuid;column:client_id;not null;index" json:"client_id"`
	EnrollmentID *uuid.UUID `gorm:"type:uuid;column:enrollment_id;index" json:"enrollment_id,omitempty"`
	Status       Status     `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	Source       Source     `gorm:"column:source;type:varchar(16);not null" json:"source"`

	AssignedUserID      *uuid.UUID        `gorm:"type:uuid;column:assigned_user_id;index" json:"assigned_user_id,omitempty"`
	AssignedAt          *time.Time        `gorm:"column:assigned_at" json:"assigned_at,omitempty"`
	AssignmentExpiresAt *time.Time        `gorm:"column:assignment_expires_at;index" json:"assignment_expires_at,omitempty"`
	AssignmentHistory   AssignmentHistory `gorm:"column:assignment_history" json:"assignment_history"`

	// Import provenance, written once when the case is created.
	EntityCode    string     `gorm:"column:entity_code;index" json:"entity_code,omitempty"`
	RefMonth      int        `gorm:"column:ref_month" json:"ref_month,omitempty"`
	RefYear       int        `gorm:"column:ref_year" json:"ref_year,omitempty"`
	ImportBatchID *uuid.UUID `gorm:"type:uuid;column:import_batch_id;index" json:"import_batch_id,omitempty"`

	LastSimulationID *uuid.UUID `gorm:"type:uuid;column:last_simulation_id" json:"last_simulation_id,omitempty"`

	// Version increments on every write and backs compare-and-set updates.
	Version int64 `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Case) TableName() string { return "case_record" }

func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Status == "" {
		c.Status = StatusNovo
	}
	if c.AssignmentHistory == nil {
		c.AssignmentHistory = AssignmentHistory{}
	}
	return nil
}

func (c *Case) IsAssigned() bool { return c.AssignedUserID != nil && *c.AssignedUserID != uuid.Nil }

func (c *Case) HeldBy(userID uuid.UUID) bool {
	return c.IsAssigned() && *c.AssignedUserID == userID
}

// LockExpired reports whether a held lock's deadline is strictly in the past.
func (c *Case) LockExpired(now time.Time) bool {
	return c.AssignmentExpiresAt != nil && now.After(*c.AssignmentExpiresAt)
}

// RecordClaim sets the owner fields and appends a history entry. An entry
// still open for a previous holder is closed first with closeReason.
func (c *Case) RecordClaim(userID uuid.UUID, at, expiresAt time.Time, closeReason AssignmentReason) {
	h := c.AssignmentHistory.Entries()
	if i := AssignmentHistory(h).openIndex(); i >= 0 {
		released := at
		h[i].ReleasedAt = &released
		h[i].Reason = closeReason
	}
	h = append(h, AssignmentEntry{UserID: userID, AssignedAt: at})
	c.AssignmentHistory = h

	uid := userID
	assigned := at
	expires := expiresAt
	c.AssignedUserID = &uid
	c.AssignedAt = &assigned
	c.AssignmentExpiresAt = &expires
}

// RecordRelease clears the owner fields and closes the open history entry.
// It reports false, changing nothing, when the case is not assigned.
func (c *Case) RecordRelease(at time.Time, reason AssignmentReason) bool {
	if !c.IsAssigned() {
		return false
	}
	h := c.AssignmentHistory.Entries()
	if i := AssignmentHistory(h).openIndex(); i >= 0 {
		released := at
		h[i].ReleasedAt = &released
		h[i].Reason = reason
	} else {
		// Lock fields were set without a matching entry (legacy rows); keep
		// the trail complete.
		var since time.Time
		if c.AssignedAt != nil {
			since = *c.AssignedAt
		}
		released := at
		h = append(h, AssignmentEntry{UserID: *c.AssignedUserID, AssignedAt: since, ReleasedAt: &released, Reason: reason})
	}
	c.AssignmentHistory = h
	c.AssignedUserID = nil
	c.AssignedAt = nil
	c.AssignmentExpiresAt = nil
	return true
}

// ExtendLock moves the deadline of a lock the current holder claims again.
func (c *Case) ExtendLock(expiresAt time.Time) {
	expires := expiresAt
	c.AssignmentExpiresAt = &expires
}
