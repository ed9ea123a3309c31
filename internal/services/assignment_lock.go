package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/bizcal"
	"github.com/yungbote/esteira-backend/internal/platform/clock"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

const DefaultLockHours = 72

type LockConfig struct {
	// DefaultLockHours applies when Claim receives lockHours <= 0.
	DefaultLockHours float64
	// Location decides which days are weekends. Nil means UTC.
	Location *time.Location
}

// AssignmentLockManager gives one user at a time exclusive work on a case,
// for a number of business hours.
type AssignmentLockManager interface {
	Claim(dbc dbctx.Context, caseID uuid.UUID, userID uuid.UUID, lockHours float64) (*types.Case, error)
	Release(dbc dbctx.Context, caseID uuid.UUID, reason types.AssignmentReason) (*types.Case, error)
	// ReleaseExpired releases the case only if its lock has lapsed at the
	// time of the call. It reports whether a release happened.
	ReleaseExpired(dbc dbctx.Context, caseID uuid.UUID) (bool, error)
	History(dbc dbctx.Context, caseID uuid.UUID) ([]types.AssignmentEntry, error)
	Deadline(start time.Time, lockHours float64) time.Time
}

type assignmentLockManager struct {
	db      *gorm.DB
	log     *logger.Logger
	clock   clock.Clock
	cases   caserepos.CaseRepo
	events  caserepos.CaseEventRepo
	machine StatusMachine
	cfg     LockConfig
}

func NewAssignmentLockManager(
	db *gorm.DB,
	baseLog *logger.Logger,
	clk clock.Clock,
	cases caserepos.CaseRepo,
	events caserepos.CaseEventRepo,
	machine StatusMachine,
	cfg LockConfig,
) AssignmentLockManager {
	if clk == nil {
		clk = clock.Real()
	}
	if cfg.DefaultLockHours <= 0 {
		cfg.DefaultLockHours = DefaultLockHours
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &assignmentLockManager{
		db:      db,
		log:     baseLog.With("service", "AssignmentLockManager"),
		clock:   clk,
		cases:   cases,
		events:  events,
		machine: machine,
		cfg:     cfg,
	}
}

// Deadline adds lockHours business hours to start, judging weekends in the
// configured location. The result is UTC.
func (m *assignmentLockManager) Deadline(start time.Time, lockHours float64) time.Time {
	if lockHours <= 0 {
		lockHours = m.cfg.DefaultLockHours
	}
	return bizcal.AddBusinessHours(start.In(m.cfg.Location), lockHours).UTC()
}

func (m *assignmentLockManager) Claim(dbc dbctx.Context, caseID uuid.UUID, userID uuid.UUID, lockHours float64) (out *types.Case, err error) {
	dbc, span := startSpan(dbc, "AssignmentLockManager.Claim",
		attribute.String("case_id", caseID.String()),
		attribute.Float64("lock_hours", lockHours),
	)
	defer func() { endSpan(span, err) }()

	if userID == uuid.Nil {
		return nil, types.Validation("claim: missing user_id")
	}
	if lockHours <= 0 {
		lockHours = m.cfg.DefaultLockHours
	}

	err = inTx(m.db, dbc, func(txc dbctx.Context) error {
		c, err := m.cases.LockByID(txc, caseID)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		if c.Status.IsTerminal() {
			return fmt.Errorf("case %s is %s: %w", caseID, c.Status, types.ErrInvalidState)
		}

		now := m.clock.Now()
		expires := m.Deadline(now, lockHours)

		payload := types.AssignmentPayload{UserID: userID, ExpiresAt: &expires, LockHours: lockHours}
		var lapsed *types.CaseEvent

		switch {
		case c.HeldBy(userID):
			c.ExtendLock(expires)
			payload.Refreshed = true
		case c.IsAssigned() && !c.LockExpired(now):
			return fmt.Errorf("case %s: %w", caseID, types.ErrAlreadyAssigned)
		default:
			if c.IsAssigned() {
				prev := *c.AssignedUserID
				payload.PreviousUserID = &prev
				lapsed, err = types.NewCaseEvent(c.ID, types.EventAssignmentExpired, types.AssignmentPayload{
					UserID: prev,
					Reason: types.ReasonExpired,
				}, nil, now)
				if err != nil {
					return err
				}
			}
			c.RecordClaim(userID, now, expires, types.ReasonExpired)
		}

		ok, err := m.cases.UpdateFieldsCAS(txc, c.ID, c.Version, map[string]interface{}{
			"assigned_user_id":      c.AssignedUserID,
			"assigned_at":           c.AssignedAt,
			"assignment_expires_at": c.AssignmentExpiresAt,
			"assignment_history":    c.AssignmentHistory,
			"updated_at":            now,
		})
		if err != nil {
			return fmt.Errorf("update case %s lock: %w", c.ID, err)
		}
		if !ok {
			return fmt.Errorf("case %s claim: %w", c.ID, types.ErrConflict)
		}
		c.Version++
		c.UpdatedAt = now

		if c.Status == types.StatusNovo {
			if err := m.machine.TransitionTx(txc, c, types.StatusAtribuido, userID, nil); err != nil {
				return err
			}
		}

		claimed, err := types.NewCaseEvent(c.ID, types.EventAssignmentClaimed, payload, &userID, now)
		if err != nil {
			return err
		}
		if err := m.events.Append(txc, lapsed, claimed); err != nil {
			return fmt.Errorf("append case events: %w", err)
		}

		m.log.Info("case claimed",
			"case_id", c.ID,
			"user_id", userID,
			"expires_at", expires,
			"refreshed", payload.Refreshed,
		)
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *assignmentLockManager) Release(dbc dbctx.Context, caseID uuid.UUID, reason types.AssignmentReason) (out *types.Case, err error) {
	dbc, span := startSpan(dbc, "AssignmentLockManager.Release",
		attribute.String("case_id", caseID.String()),
		attribute.String("reason", string(reason)),
	)
	defer func() { endSpan(span, err) }()

	if !reason.Valid() {
		return nil, types.Validation("release: unknown reason %q", reason)
	}
	err = inTx(m.db, dbc, func(txc dbctx.Context) error {
		c, err := m.cases.LockByID(txc, caseID)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		out = c
		_, err = m.releaseTx(txc, c, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *assignmentLockManager) ReleaseExpired(dbc dbctx.Context, caseID uuid.UUID) (released bool, err error) {
	err = inTx(m.db, dbc, func(txc dbctx.Context) error {
		c, err := m.cases.LockByID(txc, caseID)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		// The holder may have refreshed the lock since the scan.
		if !c.LockExpired(m.clock.Now()) {
			return nil
		}
		released, err = m.releaseTx(txc, c, types.ReasonExpired)
		return err
	})
	return released, err
}

// releaseTx clears the lock on a row already locked in dbc.Tx. A case that is
// not assigned is left alone and no event is written.
func (m *assignmentLockManager) releaseTx(dbc dbctx.Context, c *types.Case, reason types.AssignmentReason) (bool, error) {
	if !c.IsAssigned() {
		return false, nil
	}
	holder := *c.AssignedUserID
	now := m.clock.Now()
	c.RecordRelease(now, reason)

	ok, err := m.cases.UpdateFieldsCAS(dbc, c.ID, c.Version, map[string]interface{}{
		"assigned_user_id":      nil,
		"assigned_at":           nil,
		"assignment_expires_at": nil,
		"assignment_history":    c.AssignmentHistory,
		"updated_at":            now,
	})
	if err != nil {
		return false, fmt.Errorf("update case %s lock: %w", c.ID, err)
	}
	if !ok {
		return false, fmt.Errorf("case %s release: %w", c.ID, types.ErrConflict)
	}
	c.Version++
	c.UpdatedAt = now

	var actor *uuid.UUID
	if reason == types.ReasonManual {
		actor = &holder
	}
	if c.Status == types.StatusAtribuido && reason != types.ReasonTransition {
		var by uuid.UUID
		if actor != nil {
			by = *actor
		}
		if err := m.machine.TransitionTx(dbc, c, types.StatusNovo, by, map[string]any{"reason": string(reason)}); err != nil {
			return false, err
		}
	}

	eventType := types.EventAssignmentReleased
	if reason == types.ReasonExpired {
		eventType = types.EventAssignmentExpired
	}
	ev, err := types.NewCaseEvent(c.ID, eventType, types.AssignmentPayload{UserID: holder, Reason: reason}, actor, now)
	if err != nil {
		return false, err
	}
	if err := m.events.Append(dbc, ev); err != nil {
		return false, fmt.Errorf("append case events: %w", err)
	}

	m.log.Info("case released", "case_id", c.ID, "user_id", holder, "reason", reason)
	return true, nil
}

func (m *assignmentLockManager) History(dbc dbctx.Context, caseID uuid.UUID) ([]types.AssignmentEntry, error) {
	c, err := m.cases.GetByID(dbc, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
	}
	return c.AssignmentHistory.Entries(), nil
}
