package cases

import (
	"time"

	"github.com/google/uuid"
)

// ExpiryNotice tells a holder their lock on a case is about to lapse.
type ExpiryNotice struct {
	CaseID   uuid.UUID `json:"case_id"`
	UserID   uuid.UUID `json:"user_id"`
	Status   Status    `json:"status"`
	Deadline time.Time `json:"deadline"`
}
