package app

import (
	"gorm.io/gorm"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

type Repos struct {
	Case         caserepos.CaseRepo
	CaseEvent    caserepos.CaseEventRepo
	Client       caserepos.ClientRepo
	Enrollment   caserepos.EnrollmentRepo
	SlaExecution caserepos.SlaExecutionRepo
	Contract     caserepos.ContractRepo
	Simulation   caserepos.SimulationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Case:         caserepos.NewCaseRepo(db, log),
		CaseEvent:    caserepos.NewCaseEventRepo(db, log),
		Client:       caserepos.NewClientRepo(db, log),
		Enrollment:   caserepos.NewEnrollmentRepo(db, log),
		SlaExecution: caserepos.NewSlaExecutionRepo(db, log),
		Contract:     caserepos.NewContractRepo(db, log),
		Simulation:   caserepos.NewSimulationRepo(db, log),
	}
}
