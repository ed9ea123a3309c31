package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/esteira-backend/internal/http"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers) *gin.Engine {
	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:            log.With("component", "http"),
		ServiceName:    cfg.Otel.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		CaseHandler:    handlers.Case,
		ImportHandler:  handlers.Import,
		SlaHandler:     handlers.Sla,
		HealthHandler:  handlers.Health,
	})
}
