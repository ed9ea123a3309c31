package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/esteira-backend/internal/data/repos/testutil"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
)

func TestStatusMachineRejectsEdgeOutsideTable(t *testing.T) {
	h := newHarness(t, friday14h)
	c := h.seedCase(t, types.StatusNovo)

	_, err := h.machine.Transition(h.dbc(), c.ID, types.StatusContratoEfetivado, uuid.New(), nil)
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("novo -> contrato_efetivado: want ErrInvalidTransition got %v", err)
	}
	got := h.reload(t, c.ID)
	if got.Status != types.StatusNovo || got.Version != c.Version {
		t.Fatalf("rejected transition changed the row: status=%s version=%d", got.Status, got.Version)
	}
	if evs := h.eventTypes(t, c.ID); len(evs) != 0 {
		t.Fatalf("rejected transition wrote events: %v", evs)
	}
}

func TestStatusMachineTerminalIsFinal(t *testing.T) {
	h := newHarness(t, friday14h)
	for _, term := range types.TerminalStatuses() {
		c := h.seedCase(t, term)
		for _, target := range []types.Status{types.StatusNovo, types.StatusEmAtendimento, types.StatusCasoCancelado} {
			if _, err := h.machine.Transition(h.dbc(), c.ID, target, uuid.New(), nil); !errors.Is(err, types.ErrInvalidTransition) {
				t.Fatalf("%s -> %s: want ErrInvalidTransition got %v", term, target, err)
			}
		}
	}
}

func TestStatusMachineTransitionRecordsDomainEvent(t *testing.T) {
	h := newHarness(t, friday14h)
	c := h.seedCase(t, types.StatusEmAtendimento)
	actor := uuid.New()

	out, err := h.machine.Transition(h.dbc(), c.ID, types.StatusCalculoPendente, actor, map[string]any{"note": "valores conferidos"})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if out.Status != types.StatusCalculoPendente || out.Version != c.Version+1 {
		t.Fatalf("Transition: want=%s/v%d got=%s/v%d", types.StatusCalculoPendente, c.Version+1, out.Status, out.Version)
	}

	evs, err := h.events.ListByCase(h.dbc(), c.ID)
	if err != nil || len(evs) != 1 {
		t.Fatalf("events: want=1 got=%d err=%v", len(evs), err)
	}
	if evs[0].Type != "calculation.calculo_pendente" {
		t.Fatalf("event type: want=%q got=%q", "calculation.calculo_pendente", evs[0].Type)
	}
	if evs[0].CreatedBy == nil || *evs[0].CreatedBy != actor {
		t.Fatalf("event actor: want=%s got=%v", actor, evs[0].CreatedBy)
	}
	decoded, err := evs[0].Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p, ok := decoded.(types.TransitionPayload)
	if !ok || p.From != types.StatusEmAtendimento || p.To != types.StatusCalculoPendente || p.Note != "valores conferidos" {
		t.Fatalf("payload: %#v", decoded)
	}
}

func TestStatusMachineUnknownCase(t *testing.T) {
	h := newHarness(t, friday14h)
	if _, err := h.machine.Transition(h.dbc(), uuid.New(), types.StatusAtribuido, uuid.New(), nil); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("unknown case: want ErrNotFound got %v", err)
	}
}

func TestStatusMachineClosingReleasesLock(t *testing.T) {
	h := newHarness(t, friday14h)
	holder := uuid.New()
	c := h.seedAssigned(t, types.StatusEmAtendimento, holder, friday14h.Add(24*time.Hour))

	out, err := h.machine.Transition(h.dbc(), c.ID, types.StatusEncerrado, holder, nil)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if out.IsAssigned() {
		t.Fatalf("closed case still assigned to %v", out.AssignedUserID)
	}
	got := h.reload(t, c.ID)
	if got.IsAssigned() || got.AssignmentExpiresAt != nil {
		t.Fatalf("persisted lock not cleared: %+v", got)
	}
	hist := got.AssignmentHistory
	if len(hist) != 1 || hist[0].ReleasedAt == nil || hist[0].Reason != types.ReasonTransition {
		t.Fatalf("history: %+v", hist)
	}
	evs := h.eventTypes(t, c.ID)
	if countType(evs, "case.encerrado") != 1 || countType(evs, types.EventAssignmentReleased) != 1 {
		t.Fatalf("events: %v", evs)
	}
}

func TestStatusMachineFinanceOpensContract(t *testing.T) {
	h := newHarness(t, friday14h)
	ctx := context.Background()
	c := h.seedCase(t, types.StatusFechamentoAprovado)
	sim := testutil.SeedSimulation(t, ctx, h.db, c.ID, types.SimulationAprovada)
	if err := h.db.Model(&types.Case{}).Where("id = ?", c.ID).Update("last_simulation_id", sim.ID).Error; err != nil {
		t.Fatalf("set simulation: %v", err)
	}

	if _, err := h.machine.Transition(h.dbc(), c.ID, types.StatusFinanceiroPendente, uuid.New(), nil); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	contract, err := h.contracts.GetByCase(h.dbc(), c.ID)
	if err != nil || contract == nil {
		t.Fatalf("contract: got=%v err=%v", contract, err)
	}
	if contract.Status != types.ContractAtivo || contract.SimulationID == nil || *contract.SimulationID != sim.ID {
		t.Fatalf("contract: %+v", contract)
	}
}

func TestStatusMachineFinanceWithoutApprovedSimulation(t *testing.T) {
	h := newHarness(t, friday14h)
	ctx := context.Background()
	c := h.seedCase(t, types.StatusFechamentoAprovado)
	sim := testutil.SeedSimulation(t, ctx, h.db, c.ID, types.SimulationReprovada)
	if err := h.db.Model(&types.Case{}).Where("id = ?", c.ID).Update("last_simulation_id", sim.ID).Error; err != nil {
		t.Fatalf("set simulation: %v", err)
	}
	if _, err := h.machine.Transition(h.dbc(), c.ID, types.StatusFinanceiroPendente, uuid.New(), nil); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if contract, err := h.contracts.GetByCase(h.dbc(), c.ID); err != nil || contract != nil {
		t.Fatalf("contract: want=nil got=%v err=%v", contract, err)
	}
}

func TestStatusMachineReopenIsIdempotent(t *testing.T) {
	h := newHarness(t, friday14h)
	c := h.seedCase(t, types.StatusFinanceiroPendente)
	contract := &types.Contract{CaseID: c.ID, Status: types.ContractAtivo}
	if err := h.contracts.Create(h.dbc(), contract); err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	actor := uuid.New()

	first, err := h.machine.Reopen(h.dbc(), c.ID, actor, "documento ilegivel")
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if first.Status != types.StatusDevolvidoFinanceiro {
		t.Fatalf("Reopen status: want=%s got=%s", types.StatusDevolvidoFinanceiro, first.Status)
	}
	second, err := h.machine.Reopen(h.dbc(), c.ID, actor, "de novo")
	if err != nil {
		t.Fatalf("Reopen again: %v", err)
	}
	if second.Version != first.Version {
		t.Fatalf("second Reopen wrote the row: v%d -> v%d", first.Version, second.Version)
	}

	evs := h.eventTypes(t, c.ID)
	if countType(evs, types.EventFinanceReopened) != 1 {
		t.Fatalf("finance.reopened events: want=1 got=%v", evs)
	}
	if countType(evs, "finance.devolvido_financeiro") != 0 {
		t.Fatalf("reopen must not log a plain transition event: %v", evs)
	}
	got, _ := h.contracts.GetByCase(h.dbc(), c.ID)
	if got.Status != types.ContractEmRevisao {
		t.Fatalf("contract after reopen: want=%s got=%s", types.ContractEmRevisao, got.Status)
	}

	// Back to finance restores the contract.
	if _, err := h.machine.Transition(h.dbc(), c.ID, types.StatusFinanceiroPendente, actor, nil); err != nil {
		t.Fatalf("Transition back to finance: %v", err)
	}
	got, _ = h.contracts.GetByCase(h.dbc(), c.ID)
	if got.Status != types.ContractAtivo {
		t.Fatalf("contract after return: want=%s got=%s", types.ContractAtivo, got.Status)
	}
}

func TestStatusMachineTransitionToDevolvidoReopens(t *testing.T) {
	h := newHarness(t, friday14h)
	c := h.seedCase(t, types.StatusFinanceiroPendente)
	contract := &types.Contract{CaseID: c.ID, Status: types.ContractAtivo}
	if err := h.contracts.Create(h.dbc(), contract); err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	actor := uuid.New()
	payload := map[string]any{"note": "margem divergente"}

	first, err := h.machine.Transition(h.dbc(), c.ID, types.StatusDevolvidoFinanceiro, actor, payload)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	second, err := h.machine.Transition(h.dbc(), c.ID, types.StatusDevolvidoFinanceiro, actor, payload)
	if err != nil {
		t.Fatalf("Transition again: want=nil got=%v", err)
	}
	if second.Status != types.StatusDevolvidoFinanceiro || second.Version != first.Version {
		t.Fatalf("second Transition: want=%s v%d got=%s v%d",
			types.StatusDevolvidoFinanceiro, first.Version, second.Status, second.Version)
	}

	evs := h.eventTypes(t, c.ID)
	if countType(evs, types.EventFinanceReopened) != 1 {
		t.Fatalf("finance.reopened events: want=1 got=%v", evs)
	}
	if countType(evs, "finance.devolvido_financeiro") != 0 {
		t.Fatalf("plain transition event written: %v", evs)
	}
	got, _ := h.contracts.GetByCase(h.dbc(), c.ID)
	if got.Status != types.ContractEmRevisao {
		t.Fatalf("contract: want=%s got=%s", types.ContractEmRevisao, got.Status)
	}
}

func TestStatusMachineReopenRejectsEarlyStages(t *testing.T) {
	h := newHarness(t, friday14h)
	c := h.seedCase(t, types.StatusEmAtendimento)
	if _, err := h.machine.Reopen(h.dbc(), c.ID, uuid.New(), ""); !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("Reopen from em_atendimento: want ErrInvalidTransition got %v", err)
	}
}
