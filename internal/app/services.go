package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/esteira-backend/internal/jobs/worker"
	"github.com/yungbote/esteira-backend/internal/platform/clock"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/services"
	"github.com/yungbote/esteira-backend/internal/temporalx/slamaint"
	"github.com/yungbote/esteira-backend/internal/temporalx/temporalworker"
)

type Services struct {
	Machine   services.StatusMachine
	Locks     services.AssignmentLockManager
	Scheduler services.SlaScheduler
	Resolver  services.ImportResolver
	Queries   services.CaseQueryService

	// Exactly one of these drives periodic maintenance.
	Maintenance    *worker.MaintenanceRunner
	TemporalWorker *temporalworker.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	clk := clock.Real()

	obligations := services.NewContractObligations(log, repos.Contract, repos.Simulation)
	machine := services.NewStatusMachine(db, log, clk, repos.Case, repos.CaseEvent, repos.Contract, obligations)
	locks := services.NewAssignmentLockManager(db, log, clk, repos.Case, repos.CaseEvent, machine, services.LockConfig{
		DefaultLockHours: cfg.DefaultLockHours,
		Location:         cfg.Location(),
	})

	var notifier services.ExpiryNotifier = clients.ExpiryBus
	scheduler := services.NewSlaScheduler(log, clk, repos.Case, repos.CaseEvent, repos.SlaExecution, locks, notifier, services.SchedulerConfig{
		BatchSize:       cfg.SlaBatchSize,
		NearExpiryHours: cfg.NearExpiryHours,
		StatsDays:       cfg.StatsDays,
	})
	resolver := services.NewImportResolver(db, log, clk, repos.Client, repos.Enrollment, repos.Case, repos.CaseEvent, cfg.ImportConcurrency)
	queries := services.NewCaseQueryService(log, repos.Case, repos.CaseEvent, repos.SlaExecution)

	out := Services{
		Machine:   machine,
		Locks:     locks,
		Scheduler: scheduler,
		Resolver:  resolver,
		Queries:   queries,
	}

	if clients.Temporal != nil {
		runner, err := temporalworker.NewRunner(log, clients.Temporal, cfg.Temporal, &slamaint.Activities{
			Log:       log.With("component", "SlaMaintenanceActivities"),
			Scheduler: scheduler,
		})
		if err != nil {
			return Services{}, fmt.Errorf("init temporal worker: %w", err)
		}
		out.TemporalWorker = runner
		return out, nil
	}

	var guard worker.RunGuard
	if clients.RunLock != nil {
		guard = clients.RunLock
	}
	out.Maintenance = worker.NewMaintenanceRunner(log, scheduler, guard, worker.Config{
		Schedule:        cfg.SlaSchedule,
		NearExpiryHours: cfg.NearExpiryHours,
	})
	return out, nil
}
