package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/esteira-backend/internal/http/handlers"
	httpMW "github.com/yungbote/esteira-backend/internal/http/middleware"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	CaseHandler   *httpH.CaseHandler
	ImportHandler *httpH.ImportHandler
	SlaHandler    *httpH.SlaHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachActor())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	if cfg.CaseHandler != nil {
		api.GET("/cases", cfg.CaseHandler.ListCases)
		api.GET("/cases/:id", cfg.CaseHandler.GetCase)
		api.GET("/cases/:id/events", cfg.CaseHandler.ListEvents)
		api.GET("/cases/:id/assignments", cfg.CaseHandler.History)
		api.POST("/cases/:id/claim", cfg.CaseHandler.Claim)
		api.POST("/cases/:id/release", cfg.CaseHandler.Release)
		api.POST("/cases/:id/transition", cfg.CaseHandler.Transition)
		api.POST("/cases/:id/reopen", cfg.CaseHandler.Reopen)
	}

	if cfg.ImportHandler != nil {
		api.POST("/imports/rows", cfg.ImportHandler.ResolveRow)
		api.POST("/imports/batches", cfg.ImportHandler.ResolveBatch)
	}

	admin := api.Group("/admin")
	if cfg.SlaHandler != nil {
		admin.POST("/sla/run", cfg.SlaHandler.Run)
		admin.GET("/sla/near-expiry", cfg.SlaHandler.NearExpiry)
		admin.GET("/sla/stats", cfg.SlaHandler.Stats)
		admin.GET("/sla/executions", cfg.SlaHandler.Executions)
	}

	return r
}
