package slamaint

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow runs one maintenance pass. It is started with a CronSchedule, so
// each firing is a fresh run.
func Workflow(ctx workflow.Context, in Input) (Summary, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})

	var out Summary
	if err := workflow.ExecuteActivity(ctx, ActivityProcessExpired).Get(ctx, &out); err != nil {
		return out, err
	}

	if in.NearExpiryHours > 0 {
		var sent int
		if err := workflow.ExecuteActivity(ctx, ActivityNotifyNearExpiry, in.NearExpiryHours).Get(ctx, &sent); err != nil {
			// Notices are advisory; the release pass already committed.
			workflow.GetLogger(ctx).Warn("near-expiry notify failed", "error", err)
		}
		out.Notified = sent
	}
	return out, nil
}
