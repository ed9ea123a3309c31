package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/clock"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

// RunTrigger says who started a maintenance run.
type RunTrigger struct {
	Type   types.ExecutionType
	UserID *uuid.UUID
	// Source names the entry point (cron, temporal, http, cli) for the log.
	Source string
}

func AutomaticTrigger(source string) RunTrigger {
	return RunTrigger{Type: types.ExecutionAutomatic, Source: source}
}

func ManualTrigger(userID uuid.UUID, source string) RunTrigger {
	t := RunTrigger{Type: types.ExecutionManual, Source: source}
	if userID != uuid.Nil {
		t.UserID = &userID
	}
	return t
}

type SlaRunResult struct {
	ExecutionID     uuid.UUID            `json:"execution_id"`
	ExpiredCount    int                  `json:"expired_count"`
	ReleasedCaseIDs []uuid.UUID          `json:"released_case_ids"`
	Errors          []types.SlaCaseError `json:"errors"`
	DurationSeconds float64              `json:"duration_seconds"`
	Scanned         int                  `json:"scanned"`
	Cancelled       bool                 `json:"cancelled,omitempty"`

	Failures []*types.SchedulerExecutionError `json:"-"`
}

type UserAssignmentStats struct {
	Claims      int64 `json:"claims"`
	Releases    int64 `json:"releases"`
	Expirations int64 `json:"expirations"`
}

type AssignmentStatistics struct {
	PeriodDays  int                               `json:"period_days"`
	Since       time.Time                         `json:"since"`
	Claims      int64                             `json:"claims"`
	Releases    int64                             `json:"releases"`
	Expirations int64                             `json:"expirations"`
	ByUser      map[uuid.UUID]UserAssignmentStats `json:"by_user"`
}

// ExpiryNotifier receives near-expiry notices. Implementations must not
// reach back into the case store.
type ExpiryNotifier interface {
	NotifyNearExpiry(ctx context.Context, notice types.ExpiryNotice) error
}

type SchedulerConfig struct {
	// BatchSize caps the cases handled in one run; 0 means no cap.
	BatchSize       int
	NearExpiryHours float64
	StatsDays       int
}

// SlaScheduler releases lapsed locks and reports on lock activity. It is
// single-threaded; callers keep runs from overlapping.
type SlaScheduler interface {
	ProcessExpiredCases(dbc dbctx.Context, trigger RunTrigger) (*SlaRunResult, error)
	GetCasesNearExpiry(dbc dbctx.Context, hoursBefore float64) ([]*types.Case, error)
	GetAssignmentStatistics(dbc dbctx.Context, days int) (*AssignmentStatistics, error)
	NotifyNearExpiry(dbc dbctx.Context, hoursBefore float64) (int, error)
}

type slaScheduler struct {
	log        *logger.Logger
	clock      clock.Clock
	cases      caserepos.CaseRepo
	events     caserepos.CaseEventRepo
	executions caserepos.SlaExecutionRepo
	locks      AssignmentLockManager
	notifier   ExpiryNotifier
	cfg        SchedulerConfig
}

func NewSlaScheduler(
	baseLog *logger.Logger,
	clk clock.Clock,
	cases caserepos.CaseRepo,
	events caserepos.CaseEventRepo,
	executions caserepos.SlaExecutionRepo,
	locks AssignmentLockManager,
	notifier ExpiryNotifier,
	cfg SchedulerConfig,
) SlaScheduler {
	if clk == nil {
		clk = clock.Real()
	}
	if cfg.NearExpiryHours <= 0 {
		cfg.NearExpiryHours = 4
	}
	if cfg.StatsDays <= 0 {
		cfg.StatsDays = 7
	}
	return &slaScheduler{
		log:        baseLog.With("service", "SlaScheduler"),
		clock:      clk,
		cases:      cases,
		events:     events,
		executions: executions,
		locks:      locks,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// ProcessExpiredCases releases every case whose lock deadline has passed.
// A failure on one case is recorded and the run moves on. Cancellation is
// honoured between cases; the execution record is written either way and
// the context error is returned alongside the partial result.
func (s *slaScheduler) ProcessExpiredCases(dbc dbctx.Context, trigger RunTrigger) (res *SlaRunResult, err error) {
	dbc, span := startSpan(dbc, "SlaScheduler.ProcessExpiredCases",
		attribute.String("trigger", string(trigger.Type)),
		attribute.String("source", trigger.Source),
	)
	defer func() { endSpan(span, err) }()

	if trigger.Type == "" {
		trigger.Type = types.ExecutionAutomatic
	}
	started := time.Now()
	executedAt := s.clock.Now()
	ctx := dbc.Context()

	res = &SlaRunResult{
		ReleasedCaseIDs: []uuid.UUID{},
		Errors:          []types.SlaCaseError{},
	}
	var expired []*types.Case
	if ctx.Err() != nil {
		res.Cancelled = true
	} else {
		expired, err = s.cases.ListExpired(dbctx.Context{Ctx: ctx}, executedAt, s.cfg.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("scan expired locks: %w", err)
		}
	}
	res.Scanned = len(expired)
	for _, c := range expired {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		released, relErr := s.locks.ReleaseExpired(dbctx.Context{Ctx: ctx}, c.ID)
		if relErr != nil {
			execErr := &types.SchedulerExecutionError{CaseID: c.ID, Err: relErr}
			res.Failures = append(res.Failures, execErr)
			res.Errors = append(res.Errors, types.SlaCaseError{CaseID: c.ID, Error: relErr.Error()})
			s.log.Warn("sla release failed", "case_id", c.ID, "error", relErr)
			continue
		}
		if released {
			res.ReleasedCaseIDs = append(res.ReleasedCaseIDs, c.ID)
		}
	}
	res.ExpiredCount = len(res.ReleasedCaseIDs)
	res.DurationSeconds = time.Since(started).Seconds()

	exec := &types.SlaExecution{
		ExecutedAt:        executedAt,
		ExecutionType:     trigger.Type,
		CasesExpiredCount: res.ExpiredCount,
		ExecutedByUserID:  trigger.UserID,
		DurationSeconds:   res.DurationSeconds,
	}
	if err := exec.SetReleased(res.ReleasedCaseIDs); err != nil {
		return res, err
	}
	if err := exec.SetDetails(types.SlaExecutionDetails{
		Scanned:   res.Scanned,
		Errors:    res.Errors,
		Cancelled: res.Cancelled,
		Trigger:   trigger.Source,
	}); err != nil {
		return res, err
	}
	if err := s.executions.Create(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, exec); err != nil {
		return res, fmt.Errorf("record sla execution: %w", err)
	}
	res.ExecutionID = exec.ID

	s.log.Info("sla maintenance finished",
		"execution_id", exec.ID,
		"trigger", trigger.Type,
		"source", trigger.Source,
		"scanned", res.Scanned,
		"expired", res.ExpiredCount,
		"errors", len(res.Errors),
		"duration_seconds", res.DurationSeconds,
	)
	if res.Cancelled {
		return res, fmt.Errorf("sla maintenance interrupted: %w", ctx.Err())
	}
	return res, nil
}

func (s *slaScheduler) GetCasesNearExpiry(dbc dbctx.Context, hoursBefore float64) ([]*types.Case, error) {
	if hoursBefore <= 0 {
		hoursBefore = s.cfg.NearExpiryHours
	}
	now := s.clock.Now()
	until := now.Add(time.Duration(hoursBefore * float64(time.Hour)))
	return s.cases.ListExpiringBetween(dbc, now, until)
}

func (s *slaScheduler) GetAssignmentStatistics(dbc dbctx.Context, days int) (*AssignmentStatistics, error) {
	if days <= 0 {
		days = s.cfg.StatsDays
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	eventTypes := []string{types.EventAssignmentClaimed, types.EventAssignmentReleased, types.EventAssignmentExpired}

	events, err := s.events.ListByTypesSince(dbc, eventTypes, since)
	if err != nil {
		return nil, err
	}
	out := &AssignmentStatistics{
		PeriodDays: days,
		Since:      since,
		ByUser:     map[uuid.UUID]UserAssignmentStats{},
	}
	for _, ev := range events {
		var userID uuid.UUID
		if decoded, err := ev.Decode(); err == nil {
			if p, ok := decoded.(types.AssignmentPayload); ok {
				userID = p.UserID
			}
		}
		st := out.ByUser[userID]
		switch ev.Type {
		case types.EventAssignmentClaimed:
			out.Claims++
			st.Claims++
		case types.EventAssignmentReleased:
			out.Releases++
			st.Releases++
		case types.EventAssignmentExpired:
			out.Expirations++
			st.Expirations++
		}
		if userID != uuid.Nil {
			out.ByUser[userID] = st
		}
	}
	return out, nil
}

// NotifyNearExpiry sends one notice per held case whose deadline falls in
// the next hoursBefore hours and returns how many were delivered.
func (s *slaScheduler) NotifyNearExpiry(dbc dbctx.Context, hoursBefore float64) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	near, err := s.GetCasesNearExpiry(dbc, hoursBefore)
	if err != nil {
		return 0, err
	}
	sent := 0
	var errs []error
	for _, c := range near {
		if !c.IsAssigned() || c.AssignmentExpiresAt == nil {
			continue
		}
		notice := types.ExpiryNotice{
			CaseID:   c.ID,
			UserID:   *c.AssignedUserID,
			Status:   c.Status,
			Deadline: *c.AssignmentExpiresAt,
		}
		if err := s.notifier.NotifyNearExpiry(dbc.Context(), notice); err != nil {
			errs = append(errs, fmt.Errorf("notify case %s: %w", c.ID, err))
			continue
		}
		sent++
	}
	if len(errs) > 0 {
		s.log.Warn("near-expiry notices failed", "failed", len(errs), "sent", sent)
	}
	return sent, errors.Join(errs...)
}
