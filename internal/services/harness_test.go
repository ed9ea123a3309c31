package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	"github.com/yungbote/esteira-backend/internal/data/repos/testutil"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/clock"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
)

// 2026-03-06 is a Friday.
var friday14h = time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)

type harness struct {
	db    *gorm.DB
	clock *clock.FakeClock

	cases       caserepos.CaseRepo
	clients     caserepos.ClientRepo
	enrollments caserepos.EnrollmentRepo
	events      caserepos.CaseEventRepo
	executions  caserepos.SlaExecutionRepo
	contracts   caserepos.ContractRepo
	simulations caserepos.SimulationRepo

	machine  StatusMachine
	locks    AssignmentLockManager
	resolver ImportResolver
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := clock.Fake(now)

	h := &harness{
		db:          db,
		clock:       clk,
		cases:       caserepos.NewCaseRepo(db, log),
		clients:     caserepos.NewClientRepo(db, log),
		enrollments: caserepos.NewEnrollmentRepo(db, log),
		events:      caserepos.NewCaseEventRepo(db, log),
		executions:  caserepos.NewSlaExecutionRepo(db, log),
		contracts:   caserepos.NewContractRepo(db, log),
		simulations: caserepos.NewSimulationRepo(db, log),
	}
	h.machine = NewStatusMachine(db, log, clk, h.cases, h.events, h.contracts,
		NewContractObligations(log, h.contracts, h.simulations))
	h.locks = NewAssignmentLockManager(db, log, clk, h.cases, h.events, h.machine, LockConfig{})
	h.resolver = NewImportResolver(db, log, clk, h.clients, h.enrollments, h.cases, h.events, 4)
	return h
}

func (h *harness) scheduler(t *testing.T, locks AssignmentLockManager, notifier ExpiryNotifier) SlaScheduler {
	t.Helper()
	if locks == nil {
		locks = h.locks
	}
	return NewSlaScheduler(testutil.Logger(t), h.clock, h.cases, h.events, h.executions, locks, notifier, SchedulerConfig{})
}

func (h *harness) dbc() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func (h *harness) seedCase(t *testing.T, status types.Status) *types.Case {
	t.Helper()
	client := testutil.SeedClient(t, context.Background(), h.db, "")
	return testutil.SeedCase(t, context.Background(), h.db, client.ID, status)
}

func (h *harness) seedAssigned(t *testing.T, status types.Status, userID uuid.UUID, expiresAt time.Time) *types.Case {
	t.Helper()
	return testutil.SeedAssignedCase(t, context.Background(), h.db, status, userID, expiresAt.Add(-72*time.Hour), expiresAt)
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *types.Case {
	t.Helper()
	c, err := h.cases.GetByID(h.dbc(), id)
	if err != nil || c == nil {
		t.Fatalf("reload case %s: got=%v err=%v", id, c, err)
	}
	return c
}

func (h *harness) eventTypes(t *testing.T, caseID uuid.UUID) []string {
	t.Helper()
	evs, err := h.events.ListByCase(h.dbc(), caseID)
	if err != nil {
		t.Fatalf("ListByCase: %v", err)
	}
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func countType(list []string, want string) int {
	n := 0
	for _, t := range list {
		if t == want {
			n++
		}
	}
	return n
}
