package cases

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyAssigned   = errors.New("case already assigned")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrInvalidState      = errors.New("invalid case state")
	// ErrConflict reports a lost compare-and-set; the caller may retry.
	ErrConflict = errors.New("concurrent update conflict")
)

// SchedulerExecutionError wraps a failure on a single case during batch
// maintenance. It never aborts the batch.
type SchedulerExecutionError struct {
	CaseID uuid.UUID
	Err    error
}

func (e *SchedulerExecutionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("sla maintenance: case %s: %v", e.CaseID, e.Err)
}

func (e *SchedulerExecutionError) Unwrap() error { return e.Err }

func InvalidTransition(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
