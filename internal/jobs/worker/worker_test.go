package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/services"
)

type fakeScheduler struct {
	services.SlaScheduler
	runs     int
	notifies int
	trigger  services.RunTrigger
	err      error
}

func (f *fakeScheduler) ProcessExpiredCases(dbc dbctx.Context, trigger services.RunTrigger) (*services.SlaRunResult, error) {
	f.runs++
	f.trigger = trigger
	if f.err != nil {
		return nil, f.err
	}
	return &services.SlaRunResult{ExecutionID: uuid.New(), ExpiredCount: 2}, nil
}

func (f *fakeScheduler) NotifyNearExpiry(dbc dbctx.Context, hoursBefore float64) (int, error) {
	f.notifies++
	return 1, nil
}

var errFakeHeld = errors.New("held")

type fakeGuard struct {
	held     bool
	released int
	err      error
}

func (g *fakeGuard) Acquire(ctx context.Context) (func(context.Context) error, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.held {
		return nil, errFakeHeld
	}
	g.held = true
	return func(context.Context) error {
		g.held = false
		g.released++
		return nil
	}, nil
}

func TestRunOnce(t *testing.T) {
	sched := &fakeScheduler{}
	guard := &fakeGuard{}
	r := NewMaintenanceRunner(logger.Nop(), sched, guard, Config{NearExpiryHours: 4})

	res, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.ExpiredCount != 2 {
		t.Fatalf("ExpiredCount: want=2 got=%d", res.ExpiredCount)
	}
	if sched.trigger.Type != types.ExecutionAutomatic {
		t.Fatalf("trigger: want=%s got=%s", types.ExecutionAutomatic, sched.trigger.Type)
	}
	if sched.notifies != 1 {
		t.Fatalf("notifies: want=1 got=%d", sched.notifies)
	}
	if guard.released != 1 || guard.held {
		t.Fatalf("guard: want released once, got released=%d held=%v", guard.released, guard.held)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	sched := &fakeScheduler{}
	guard := &fakeGuard{held: true}
	r := NewMaintenanceRunner(logger.Nop(), sched, guard, Config{})

	if _, err := r.RunOnce(context.Background()); !errors.Is(err, ErrSkipped) {
		t.Fatalf("RunOnce: want=%v got=%v", ErrSkipped, err)
	}
	if sched.runs != 0 {
		t.Fatalf("runs: want=0 got=%d", sched.runs)
	}
}

func (g *fakeGuard) Held(err error) bool { return errors.Is(err, errFakeHeld) }

func TestRunOnceRunsWhenGuardUnavailable(t *testing.T) {
	sched := &fakeScheduler{}
	guard := &fakeGuard{err: errors.New("redis setnx: dial tcp: connection refused")}
	r := NewMaintenanceRunner(logger.Nop(), sched, guard, Config{})

	res, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: want=nil got=%v", err)
	}
	if sched.runs != 1 {
		t.Fatalf("runs: want=1 got=%d", sched.runs)
	}
	if res.ExpiredCount != 2 {
		t.Fatalf("ExpiredCount: want=2 got=%d", res.ExpiredCount)
	}
	if guard.released != 0 {
		t.Fatalf("released: want=0 got=%d", guard.released)
	}
}

func TestRunOnceReleasesOnFailure(t *testing.T) {
	boom := errors.New("boom")
	sched := &fakeScheduler{err: boom}
	guard := &fakeGuard{}
	r := NewMaintenanceRunner(logger.Nop(), sched, guard, Config{NearExpiryHours: 4})

	if _, err := r.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("RunOnce: want=%v got=%v", boom, err)
	}
	if guard.held {
		t.Fatalf("guard still held after failed run")
	}
	if sched.notifies != 0 {
		t.Fatalf("notifies: want=0 got=%d", sched.notifies)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	r := NewMaintenanceRunner(logger.Nop(), &fakeScheduler{}, nil, Config{Schedule: "not a schedule"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err == nil {
		t.Fatalf("Start: want error for bad schedule")
	}
}
