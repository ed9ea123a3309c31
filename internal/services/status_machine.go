package services

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/clock"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

// StatusMachine is the only writer of Case.Status. Every accepted change
// writes the row and its audit event in one transaction.
type StatusMachine interface {
	Transition(dbc dbctx.Context, caseID uuid.UUID, target types.Status, actor uuid.UUID, payload map[string]any) (*types.Case, error)
	// TransitionTx applies a transition to a case the caller has already
	// locked inside dbc.Tx. c is updated in place.
	TransitionTx(dbc dbctx.Context, c *types.Case, target types.Status, actor uuid.UUID, payload map[string]any) error
	Reopen(dbc dbctx.Context, caseID uuid.UUID, actor uuid.UUID, reason string) (*types.Case, error)
}

type statusMachine struct {
	db          *gorm.DB
	log         *logger.Logger
	clock       clock.Clock
	cases       caserepos.CaseRepo
	events      caserepos.CaseEventRepo
	contracts   caserepos.ContractRepo
	obligations FinanceObligations
}

func NewStatusMachine(
	db *gorm.DB,
	baseLog *logger.Logger,
	clk clock.Clock,
	cases caserepos.CaseRepo,
	events caserepos.CaseEventRepo,
	contracts caserepos.ContractRepo,
	obligations FinanceObligations,
) StatusMachine {
	if clk == nil {
		clk = clock.Real()
	}
	return &statusMachine{
		db:          db,
		log:         baseLog.With("service", "StatusMachine"),
		clock:       clk,
		cases:       cases,
		events:      events,
		contracts:   contracts,
		obligations: obligations,
	}
}

func (s *statusMachine) Transition(dbc dbctx.Context, caseID uuid.UUID, target types.Status, actor uuid.UUID, payload map[string]any) (out *types.Case, err error) {
	dbc, span := startSpan(dbc, "StatusMachine.Transition",
		attribute.String("case_id", caseID.String()),
		attribute.String("target", string(target)),
	)
	defer func() { endSpan(span, err) }()

	if !target.Valid() {
		return nil, types.Validation("unknown status %q", target)
	}
	err = inTx(s.db, dbc, func(txc dbctx.Context) error {
		c, err := s.cases.LockByID(txc, caseID)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		if err := s.TransitionTx(txc, c, target, actor, payload); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *statusMachine) TransitionTx(dbc dbctx.Context, c *types.Case, target types.Status, actor uuid.UUID, payload map[string]any) error {
	if dbc.Tx == nil {
		return fmt.Errorf("status transition requires a transaction")
	}
	if c == nil {
		return types.ErrNotFound
	}
	if target == types.StatusDevolvidoFinanceiro {
		return s.reopenTx(dbc, c, actor, reasonFrom(payload))
	}
	from := c.Status
	if !types.CanTransition(from, target) {
		return types.InvalidTransition(from, target)
	}
	now := s.clock.Now()

	updates := map[string]interface{}{
		"status":     string(target),
		"updated_at": now,
	}

	// Closing a case or sending it back to the intake pool ends any lock.
	var releasedFrom *uuid.UUID
	if (target.IsTerminal() || target == types.StatusNovo) && c.IsAssigned() {
		holder := *c.AssignedUserID
		releasedFrom = &holder
		c.RecordRelease(now, types.ReasonTransition)
		updates["assigned_user_id"] = nil
		updates["assigned_at"] = nil
		updates["assignment_expires_at"] = nil
		updates["assignment_history"] = c.AssignmentHistory
	}

	ok, err := s.cases.UpdateFieldsCAS(dbc, c.ID, c.Version, updates)
	if err != nil {
		return fmt.Errorf("update case %s status: %w", c.ID, err)
	}
	if !ok {
		return fmt.Errorf("case %s %s -> %s: %w", c.ID, from, target, types.ErrConflict)
	}
	c.Status = target
	c.Version++
	c.UpdatedAt = now

	if target == types.StatusFinanceiroPendente && s.obligations != nil {
		if err := s.obligations.OnFinancePending(dbc, c, from); err != nil {
			return fmt.Errorf("finance obligations for case %s: %w", c.ID, err)
		}
	}

	ev, err := types.NewCaseEvent(c.ID, target.TransitionEventType(), types.TransitionPayload{
		From: from,
		To:   target,
		Note: noteFrom(payload),
		Data: payload,
	}, &actor, now)
	if err != nil {
		return err
	}
	evs := []*types.CaseEvent{ev}
	if releasedFrom != nil {
		rel, err := types.NewCaseEvent(c.ID, types.EventAssignmentReleased, types.AssignmentPayload{
			UserID: *releasedFrom,
			Reason: types.ReasonTransition,
		}, &actor, now)
		if err != nil {
			return err
		}
		evs = append(evs, rel)
	}
	if err := s.events.Append(dbc, evs...); err != nil {
		return fmt.Errorf("append case events: %w", err)
	}

	s.log.Info("case status changed",
		"case_id", c.ID,
		"from", from,
		"to", target,
		"actor_user_id", actor,
	)
	return nil
}

// Reopen returns a case from finance to devolvido_financeiro and puts its
// active contract under review. A case already there is returned untouched.
func (s *statusMachine) Reopen(dbc dbctx.Context, caseID uuid.UUID, actor uuid.UUID, reason string) (out *types.Case, err error) {
	dbc, span := startSpan(dbc, "StatusMachine.Reopen", attribute.String("case_id", caseID.String()))
	defer func() { endSpan(span, err) }()

	err = inTx(s.db, dbc, func(txc dbctx.Context) error {
		c, err := s.cases.LockByID(txc, caseID)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		if err := s.reopenTx(txc, c, actor, reason); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reopenTx is the only path into devolvido_financeiro; Transition routes
// that target here too.
func (s *statusMachine) reopenTx(dbc dbctx.Context, c *types.Case, actor uuid.UUID, reason string) error {
	if c.Status == types.StatusDevolvidoFinanceiro {
		return nil
	}
	from := c.Status
	if !types.CanTransition(from, types.StatusDevolvidoFinanceiro) {
		return types.InvalidTransition(from, types.StatusDevolvidoFinanceiro)
	}

	now := s.clock.Now()
	ok, err := s.cases.UpdateFieldsCAS(dbc, c.ID, c.Version, map[string]interface{}{
		"status":     string(types.StatusDevolvidoFinanceiro),
		"updated_at": now,
	})
	if err != nil {
		return fmt.Errorf("update case %s status: %w", c.ID, err)
	}
	if !ok {
		return fmt.Errorf("case %s reopen: %w", c.ID, types.ErrConflict)
	}
	c.Status = types.StatusDevolvidoFinanceiro
	c.Version++
	c.UpdatedAt = now

	payload := types.ReopenPayload{From: from, Reason: reason}
	contract, err := s.contracts.GetByCase(dbc, c.ID)
	if err != nil {
		return err
	}
	if contract != nil {
		moved, err := s.contracts.UpdateStatusFrom(dbc, contract.ID,
			[]types.ContractStatus{types.ContractAtivo}, types.ContractEmRevisao,
			map[string]interface{}{"updated_at": now})
		if err != nil {
			return fmt.Errorf("contract %s to review: %w", contract.ID, err)
		}
		id := contract.ID
		payload.ContractID = &id
		payload.ContractStatus = contract.Status
		if moved {
			payload.ContractStatus = types.ContractEmRevisao
		}
	}

	ev, err := types.NewCaseEvent(c.ID, types.EventFinanceReopened, payload, &actor, now)
	if err != nil {
		return err
	}
	if err := s.events.Append(dbc, ev); err != nil {
		return fmt.Errorf("append case events: %w", err)
	}
	s.log.Info("case reopened by finance", "case_id", c.ID, "from", from, "actor_user_id", actor)
	return nil
}

func noteFrom(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	if note, ok := payload["note"].(string); ok {
		return note
	}
	return ""
}

func reasonFrom(payload map[string]any) string {
	if reason, ok := payload["reason"].(string); ok && reason != "" {
		return reason
	}
	return noteFrom(payload)
}
