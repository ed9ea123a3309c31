package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/esteira-backend/internal/http/response"
	"github.com/yungbote/esteira-backend/internal/platform/ctxutil"
	"github.com/yungbote/esteira-backend/internal/services"
)

type SlaHandler struct {
	scheduler services.SlaScheduler
	queries   services.CaseQueryService
}

func NewSlaHandler(scheduler services.SlaScheduler, queries services.CaseQueryService) *SlaHandler {
	return &SlaHandler{scheduler: scheduler, queries: queries}
}

// POST /api/admin/sla/run
func (h *SlaHandler) Run(c *gin.Context) {
	actor := ctxutil.ActorID(c.Request.Context())
	res, err := h.scheduler.ProcessExpiredCases(requestDBC(c), services.ManualTrigger(actor, "http"))
	if err != nil {
		if res != nil {
			// Cancelled mid-run: the partial result is already persisted.
			response.RespondOK(c, gin.H{"result": res, "warning": err.Error()})
			return
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// GET /api/admin/sla/near-expiry?hours=4
func (h *SlaHandler) NearExpiry(c *gin.Context) {
	hours, err := queryFloat(c, "hours", 0)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	list, err := h.scheduler.GetCasesNearExpiry(requestDBC(c), hours)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cases": list})
}

// GET /api/admin/sla/stats?days=7
func (h *SlaHandler) Stats(c *gin.Context) {
	days, err := queryInt(c, "days", 0)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	stats, err := h.scheduler.GetAssignmentStatistics(requestDBC(c), days)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}

// GET /api/admin/sla/executions?limit=20
func (h *SlaHandler) Executions(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	list, err := h.queries.Executions(requestDBC(c), limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"executions": list})
}
