package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/esteira-backend/internal/data/repos/testutil"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
)

func TestCaseQueryService(t *testing.T) {
	h := newHarness(t, friday14h)
	q := NewCaseQueryService(testutil.Logger(t), h.cases, h.events, h.executions)
	dbc := h.dbc()

	novo := h.seedCase(t, types.StatusNovo)
	h.seedCase(t, types.StatusEmAtendimento)
	h.seedCase(t, types.StatusEncerrado)

	got, err := q.Get(dbc, novo.ID)
	if err != nil || got.ID != novo.ID {
		t.Fatalf("Get: want=%s got=%v err=%v", novo.ID, got, err)
	}
	if _, err := q.Get(dbc, uuid.New()); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("Get unknown: want=%v got=%v", types.ErrNotFound, err)
	}

	list, err := q.ListByStatus(dbc, []types.Status{types.StatusNovo, types.StatusEmAtendimento}, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByStatus: want=2 got=%d err=%v", len(list), err)
	}
	if _, err := q.ListByStatus(dbc, []types.Status{"bogus"}, 10); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("ListByStatus bogus: want=%v got=%v", types.ErrValidation, err)
	}

	if _, err := h.locks.Claim(dbc, novo.ID, uuid.New(), 0); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	events, err := q.Events(dbc, novo.ID)
	if err != nil || len(events) == 0 {
		t.Fatalf("Events: want>0 got=%d err=%v", len(events), err)
	}
	if _, err := q.Events(dbc, uuid.New()); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("Events unknown: want=%v got=%v", types.ErrNotFound, err)
	}

	if _, err := h.scheduler(t, nil, nil).ProcessExpiredCases(dbc, AutomaticTrigger("test")); err != nil {
		t.Fatalf("ProcessExpiredCases: %v", err)
	}
	execs, err := q.Executions(dbc, 5)
	if err != nil || len(execs) != 1 {
		t.Fatalf("Executions: want=1 got=%d err=%v", len(execs), err)
	}
}
