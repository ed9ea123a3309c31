package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/esteira-backend/internal/http/handlers"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

type Handlers struct {
	Case   *httpH.CaseHandler
	Import *httpH.ImportHandler
	Sla    *httpH.SlaHandler
	Health *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Case:   httpH.NewCaseHandler(services.Locks, services.Machine, services.Queries),
		Import: httpH.NewImportHandler(services.Resolver),
		Sla:    httpH.NewSlaHandler(services.Scheduler, services.Queries),
		Health: httpH.NewHealthHandler(db),
	}
}
