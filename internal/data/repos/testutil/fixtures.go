package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
)

// RandomCPF returns an 11-digit CPF unlikely to collide within a test.
func RandomCPF() string {
	return fmt.Sprintf("%011d", rand.Int63n(99999999999))
}

func SeedClient(tb testing.TB, ctx context.Context, tx *gorm.DB, cpf string) *types.Client {
	tb.Helper()
	if cpf == "" {
		cpf = RandomCPF()
	}
	c := &types.Client{
		ID:   uuid.New(),
		CPF:  cpf,
		Name: "Maria Teste",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed client: %v", err)
	}
	return c
}

func SeedCase(tb testing.TB, ctx context.Context, tx *gorm.DB, clientID uuid.UUID, status types.Status) *types.Case {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Case{
		ID:        uuid.New(),
		ClientID:  clientID,
		Status:    status,
		Source:    types.SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed case: %v", err)
	}
	return c
}

// SeedAssignedCase seeds a case held by userID whose lock ends at expiresAt.
func SeedAssignedCase(tb testing.TB, ctx context.Context, tx *gorm.DB, status types.Status, userID uuid.UUID, assignedAt, expiresAt time.Time) *types.Case {
	tb.Helper()
	client := SeedClient(tb, ctx, tx, "")
	c := &types.Case{
		ID:       uuid.New(),
		ClientID: client.ID,
		Status:   status,
		Source:   types.SourceManual,
	}
	c.RecordClaim(userID, assignedAt.UTC(), expiresAt.UTC(), types.ReasonExpired)
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed assigned case: %v", err)
	}
	return c
}

func SeedSimulation(tb testing.TB, ctx context.Context, tx *gorm.DB, caseID uuid.UUID, status types.SimulationStatus) *types.Simulation {
	tb.Helper()
	s := &types.Simulation{ID: uuid.New(), CaseID: caseID, Status: status}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed simulation: %v", err)
	}
	return s
}
