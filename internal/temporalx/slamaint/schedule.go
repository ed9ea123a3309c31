package slamaint

import (
	"context"
	"fmt"
	"strings"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/temporalx"
)

// StartCron starts the maintenance cron workflow under a fixed id. When a
// run with that id is already open, the existing one is kept.
func StartCron(ctx context.Context, log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, schedule string, in Input) error {
	if tc == nil {
		return fmt.Errorf("slamaint: temporal client is not configured")
	}
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return fmt.Errorf("slamaint: empty cron schedule")
	}
	run, err := tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:           cfg.MaintenanceWorkflowID,
		TaskQueue:    cfg.TaskQueue,
		CronSchedule: schedule,
	}, WorkflowName, in)
	if err != nil {
		return fmt.Errorf("slamaint: start cron workflow: %w", err)
	}
	log.Info("SLA maintenance cron workflow ready",
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID(),
		"schedule", schedule,
	)
	return nil
}
