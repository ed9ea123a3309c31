package temporalx

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

func TestBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 250 * time.Millisecond},
		{2, 500 * time.Millisecond},
		{3, time.Second},
		{10, 2 * time.Second},
	}
	for _, tc := range cases {
		if got := Backoff(250*time.Millisecond, 2*time.Second, tc.attempt); got != tc.want {
			t.Fatalf("Backoff(attempt=%d): want=%v got=%v", tc.attempt, tc.want, got)
		}
	}
}

func TestIsRetryableRPC(t *testing.T) {
	if !isRetryableRPC(status.Error(codes.Unavailable, "down")) {
		t.Fatalf("Unavailable should be retryable")
	}
	if isRetryableRPC(status.Error(codes.PermissionDenied, "no")) {
		t.Fatalf("PermissionDenied should not be retryable")
	}
	if !isRetryableRPC(context.DeadlineExceeded) {
		t.Fatalf("context deadline should be retryable")
	}
	if isRetryableRPC(errors.New("plain")) {
		t.Fatalf("plain error should not be retryable")
	}
}

func TestNewClientDisabled(t *testing.T) {
	c, err := NewClient(context.Background(), logger.Nop(), Config{})
	if err != nil || c != nil {
		t.Fatalf("NewClient without address: want nil,nil got %v,%v", c, err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("TEMPORAL_NAMESPACE", "")
	cfg := LoadConfig()
	if cfg.Enabled() {
		t.Fatalf("Enabled: want=false")
	}
	if cfg.Namespace != "esteira" || cfg.TaskQueue != "esteira" {
		t.Fatalf("defaults: namespace=%q task_queue=%q", cfg.Namespace, cfg.TaskQueue)
	}
}
