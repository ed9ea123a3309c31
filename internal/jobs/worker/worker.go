package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron"

	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/services"
)

const DefaultSchedule = "@every 15m"

// ErrSkipped is returned by RunOnce when another process holds the run lock.
var ErrSkipped = errors.New("maintenance run skipped: lock held")

// RunGuard serializes maintenance runs across processes. Held reports
// whether an Acquire error means another process owns the run.
type RunGuard interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
	Held(err error) bool
}

type Config struct {
	Schedule        string
	NearExpiryHours float64
}

// MaintenanceRunner drives SlaScheduler from an in-process cron when no
// Temporal cluster is configured.
type MaintenanceRunner struct {
	log       *logger.Logger
	scheduler services.SlaScheduler
	guard     RunGuard
	cfg       Config

	// local keeps a slow run from overlapping the next tick in this process.
	local sync.Mutex
	cron  *cron.Cron
}

func NewMaintenanceRunner(baseLog *logger.Logger, scheduler services.SlaScheduler, guard RunGuard, cfg Config) *MaintenanceRunner {
	if strings.TrimSpace(cfg.Schedule) == "" {
		cfg.Schedule = DefaultSchedule
	}
	return &MaintenanceRunner{
		log:       baseLog.With("component", "MaintenanceRunner"),
		scheduler: scheduler,
		guard:     guard,
		cfg:       cfg,
	}
}

// Start registers the cron entry and returns; the cron stops with ctx.
func (r *MaintenanceRunner) Start(ctx context.Context) error {
	if r == nil || r.scheduler == nil {
		return fmt.Errorf("maintenance runner not configured")
	}
	c := cron.New()
	if err := c.AddFunc(r.cfg.Schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, ErrSkipped) {
			r.log.Warn("SLA maintenance run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid SLA_MAINTENANCE_SCHEDULE %q: %w", r.cfg.Schedule, err)
	}
	r.cron = c
	c.Start()
	r.log.Info("SLA maintenance cron started", "schedule", r.cfg.Schedule)

	go func() {
		<-ctx.Done()
		c.Stop()
		r.log.Info("SLA maintenance cron stopped")
	}()
	return nil
}

// RunOnce releases expired locks and sends near-expiry notices.
func (r *MaintenanceRunner) RunOnce(ctx context.Context) (*services.SlaRunResult, error) {
	if !r.local.TryLock() {
		return nil, ErrSkipped
	}
	defer r.local.Unlock()

	if r.guard != nil {
		release, err := r.guard.Acquire(ctx)
		switch {
		case err == nil:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					r.log.Warn("SLA maintenance lock release failed", "error", err)
				}
			}()
		case r.guard.Held(err):
			r.log.Debug("SLA maintenance lock held elsewhere", "error", err)
			return nil, ErrSkipped
		default:
			// Expired locks must keep being released. Releases recheck expiry
			// under the row lock, so running unguarded stays safe.
			r.log.Warn("SLA maintenance lock unavailable; running unguarded", "error", err)
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	res, err := r.scheduler.ProcessExpiredCases(dbc, services.AutomaticTrigger("cron"))
	if err != nil {
		return res, err
	}
	if r.cfg.NearExpiryHours > 0 {
		sent, nerr := r.scheduler.NotifyNearExpiry(dbc, r.cfg.NearExpiryHours)
		if nerr != nil {
			r.log.Warn("near-expiry notify incomplete", "sent", sent, "error", nerr)
		}
	}
	r.log.Info("SLA maintenance run complete",
		"execution_id", res.ExecutionID,
		"expired", res.ExpiredCount,
		"errors", len(res.Errors),
	)
	return res, nil
}
