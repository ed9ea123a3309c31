package slamaint

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/services"
)

type Activities struct {
	Log       *logger.Logger
	Scheduler services.SlaScheduler
}

func (a *Activities) ProcessExpired(ctx context.Context) (Summary, error) {
	if a == nil || a.Scheduler == nil {
		return Summary{}, fmt.Errorf("slamaint: activity not configured")
	}
	info := activity.GetInfo(ctx)
	res, err := a.Scheduler.ProcessExpiredCases(dbctx.Context{Ctx: ctx}, services.AutomaticTrigger("temporal"))
	if err != nil {
		return Summary{}, err
	}
	if a.Log != nil {
		a.Log.Info("SLA maintenance activity complete",
			"workflow_id", info.WorkflowExecution.ID,
			"attempt", info.Attempt,
			"execution_id", res.ExecutionID,
			"expired", res.ExpiredCount,
		)
	}
	return Summary{
		ExecutionID:     res.ExecutionID,
		ExpiredCount:    res.ExpiredCount,
		ErrorCount:      len(res.Errors),
		DurationSeconds: res.DurationSeconds,
	}, nil
}

func (a *Activities) NotifyNearExpiry(ctx context.Context, hoursBefore float64) (int, error) {
	if a == nil || a.Scheduler == nil {
		return 0, fmt.Errorf("slamaint: activity not configured")
	}
	return a.Scheduler.NotifyNearExpiry(dbctx.Context{Ctx: ctx}, hoursBefore)
}
