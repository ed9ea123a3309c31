package services

import (
	"fmt"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

// FinanceObligations runs the cross-entity work attached to a case entering
// financeiro_pendente. It executes inside the transition's transaction.
type FinanceObligations interface {
	OnFinancePending(dbc dbctx.Context, c *types.Case, from types.Status) error
}

type contractObligations struct {
	log         *logger.Logger
	contracts   caserepos.ContractRepo
	simulations caserepos.SimulationRepo
}

func NewContractObligations(baseLog *logger.Logger, contracts caserepos.ContractRepo, simulations caserepos.SimulationRepo) FinanceObligations {
	return &contractObligations{
		log:         baseLog.With("service", "ContractObligations"),
		contracts:   contracts,
		simulations: simulations,
	}
}

// OnFinancePending opens (or reactivates) the case's contract when it comes
// from closing with an approved simulation, and takes a contract under
// review back to active when finance gets the case again.
func (o *contractObligations) OnFinancePending(dbc dbctx.Context, c *types.Case, from types.Status) error {
	switch from {
	case types.StatusFechamentoAprovado:
		if c.LastSimulationID == nil {
			o.log.Debug("no simulation on case entering finance", "case_id", c.ID)
			return nil
		}
		sim, err := o.simulations.GetByID(dbc, *c.LastSimulationID)
		if err != nil {
			return err
		}
		if !sim.IsApproved() {
			o.log.Debug("simulation not approved; contract not opened", "case_id", c.ID, "simulation_id", *c.LastSimulationID)
			return nil
		}
		existing, err := o.contracts.GetByCase(dbc, c.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			simID := sim.ID
			contract := &types.Contract{CaseID: c.ID, SimulationID: &simID, Status: types.ContractAtivo}
			if err := o.contracts.Create(dbc, contract); err != nil {
				return fmt.Errorf("create contract: %w", err)
			}
			o.log.Info("contract opened", "case_id", c.ID, "contract_id", contract.ID)
			return nil
		}
		_, err = o.contracts.UpdateStatusFrom(dbc, existing.ID,
			[]types.ContractStatus{types.ContractEmRevisao, types.ContractCancelado}, types.ContractAtivo,
			map[string]interface{}{"simulation_id": sim.ID})
		return err
	case types.StatusDevolvidoFinanceiro:
		existing, err := o.contracts.GetByCase(dbc, c.ID)
		if err != nil || existing == nil {
			return err
		}
		_, err = o.contracts.UpdateStatusFrom(dbc, existing.ID,
			[]types.ContractStatus{types.ContractEmRevisao}, types.ContractAtivo, nil)
		return err
	}
	return nil
}
