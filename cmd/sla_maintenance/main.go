package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/yungbote/esteira-backend/internal/app"
	"github.com/yungbote/esteira-backend/internal/clients/redis"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/services"
)

// sla_maintenance runs one SLA pass and prints the result as JSON.
func main() {
	var by string
	var nearExpiry float64
	var statsDays int
	flag.StringVar(&by, "by", "", "user_id recorded as a manual trigger (empty means automatic)")
	flag.Float64Var(&nearExpiry, "near-expiry", 0, "also notify holders whose lock lapses within this many hours")
	flag.IntVar(&statsDays, "stats", 0, "print assignment statistics for the last N days instead of running")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	dbc := dbctx.Context{Ctx: ctx}
	sched := application.Services.Scheduler
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if statsDays > 0 {
		stats, err := sched.GetAssignmentStatistics(dbc, statsDays)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stats: %v\n", err)
			os.Exit(1)
		}
		_ = enc.Encode(stats)
		return
	}

	if application.Clients.RunLock != nil {
		release, err := application.Clients.RunLock.Acquire(ctx)
		if errors.Is(err, redis.ErrLockHeld) {
			fmt.Fprintln(os.Stderr, "another maintenance run is in progress")
			os.Exit(2)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "run lock: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = release(context.WithoutCancel(ctx)) }()
	}

	trigger := services.AutomaticTrigger("cli")
	if by = strings.TrimSpace(by); by != "" {
		userID, err := uuid.Parse(by)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -by: %v\n", err)
			os.Exit(1)
		}
		trigger = services.ManualTrigger(userID, "cli")
	}

	res, runErr := sched.ProcessExpiredCases(dbc, trigger)
	if res != nil {
		_ = enc.Encode(res)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "maintenance: %v\n", runErr)
		os.Exit(1)
	}

	if nearExpiry > 0 {
		sent, err := sched.NotifyNearExpiry(dbc, nearExpiry)
		fmt.Fprintf(os.Stderr, "near-expiry notices sent: %d\n", sent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "notify: %v\n", err)
			os.Exit(1)
		}
	}
}
