package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsHashesIdentifiers(t *testing.T) {
	out := sanitizeKVs([]interface{}{"cpf", "12345678901", "case_id", "c-1", "bank_account", "0001-2"})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	hashed, _ := out[1].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, "12345678901") {
		t.Fatalf("cpf not hashed: %v", out[1])
	}
	if out[3] != "c-1" {
		t.Fatalf("case_id changed: %v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Fatalf("bank_account not redacted: %v", out[5])
	}
}

func TestSanitizeKVsStableHash(t *testing.T) {
	a := sanitizeKVs([]interface{}{"user_id", "u-1"})
	b := sanitizeKVs([]interface{}{"assigned_user_id", "u-1"})
	if a[1] != b[1] {
		t.Fatalf("hash mismatch: %v vs %v", a[1], b[1])
	}
}

func TestNewTestMode(t *testing.T) {
	log, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.With("component", "test").Info("ignored below warn")
	Nop().Error("discarded")
}
