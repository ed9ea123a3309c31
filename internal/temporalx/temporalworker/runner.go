package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/temporalx"
	"github.com/yungbote/esteira-backend/internal/temporalx/slamaint"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	cfg  temporalx.Config
	acts *slamaint.Activities
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, acts *slamaint.Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil || acts.Scheduler == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:  log.With("component", "TemporalWorker"),
		tc:   tc,
		cfg:  cfg,
		acts: acts,
	}, nil
}

// Start begins polling the task queue, retrying until cfg.DialMaxWait
// elapses. The worker stops when ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	cfg := r.cfg
	r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)

	deadline := time.Now().Add(cfg.DialMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		namespaceMissing := errors.As(startErr, &nfe)
		if namespaceMissing && cfg.AutoRegisterNamespace {
			if err := temporalx.EnsureNamespace(ctx, cfg, r.log); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", cfg.Namespace, "error", err)
			}
		}

		if cfg.DialMaxWait <= 0 || time.Now().After(deadline) {
			if namespaceMissing {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "task_queue", cfg.TaskQueue, "attempt", attempt, "error", startErr)
		time.Sleep(temporalx.Backoff(cfg.Backoff, cfg.BackoffMax, attempt))
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := r.cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	w.RegisterWorkflowWithOptions(slamaint.Workflow, workflow.RegisterOptions{Name: slamaint.WorkflowName})
	w.RegisterActivityWithOptions(r.acts.ProcessExpired, activity.RegisterOptions{Name: slamaint.ActivityProcessExpired})
	w.RegisterActivityWithOptions(r.acts.NotifyNearExpiry, activity.RegisterOptions{Name: slamaint.ActivityNotifyNearExpiry})
	return w
}
