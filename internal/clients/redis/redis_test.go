package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	return Config{Addr: addr}
}

func TestRunLockHeld(t *testing.T) {
	l := NewRunLock(nil, "", 0)
	if !l.Held(fmt.Errorf("acquire: %w", ErrLockHeld)) {
		t.Fatalf("Held(wrapped ErrLockHeld): want=true got=false")
	}
	if l.Held(errors.New("redis setnx: dial tcp: connection refused")) {
		t.Fatalf("Held(connection error): want=false got=true")
	}
}

func TestRunLock(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	rdb, err := NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer rdb.Close()

	key := "esteira:test:" + uuid.NewString()
	a := NewRunLock(rdb, key, time.Minute)
	b := NewRunLock(rdb, key, time.Minute)

	release, err := a.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := b.Acquire(ctx); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second Acquire: want=%v got=%v", ErrLockHeld, err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	releaseB, err := b.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = releaseB(ctx)
}

func TestExpiryBusRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rdb, err := NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer rdb.Close()

	bus, err := NewExpiryBus(logger.Nop(), rdb, "esteira.test."+uuid.NewString())
	if err != nil {
		t.Fatalf("NewExpiryBus: %v", err)
	}
	got := make(chan types.ExpiryNotice, 1)
	if err := bus.StartForwarder(ctx, func(n types.ExpiryNotice) { got <- n }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}

	want := types.ExpiryNotice{
		CaseID:   uuid.New(),
		UserID:   uuid.New(),
		Status:   types.StatusEmAtendimento,
		Deadline: time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC),
	}
	if err := bus.NotifyNearExpiry(ctx, want); err != nil {
		t.Fatalf("NotifyNearExpiry: %v", err)
	}
	select {
	case n := <-got:
		if n.CaseID != want.CaseID || !n.Deadline.Equal(want.Deadline) {
			t.Fatalf("notice: want=%+v got=%+v", want, n)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for notice")
	}
}

func TestNewExpiryBusRequiresClient(t *testing.T) {
	if _, err := NewExpiryBus(logger.Nop(), nil, ""); err == nil {
		t.Fatalf("NewExpiryBus(nil client): want error")
	}
}
