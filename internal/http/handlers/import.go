package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/http/response"
	"github.com/yungbote/esteira-backend/internal/services"
)

const maxBatchRows = 5000

type ImportHandler struct {
	resolver services.ImportResolver
}

func NewImportHandler(resolver services.ImportResolver) *ImportHandler {
	return &ImportHandler{resolver: resolver}
}

// POST /api/imports/rows
func (h *ImportHandler) ResolveRow(c *gin.Context) {
	var row types.ImportRow
	if err := c.ShouldBindJSON(&row); err != nil {
		response.RespondErr(c, bindErr(err))
		return
	}
	res, err := h.resolver.EnsureClientCase(requestDBC(c), row)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	status := http.StatusOK
	if res.CaseCreated {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

type batchRequest struct {
	BatchID *uuid.UUID        `json:"batch_id"`
	Rows    []types.ImportRow `json:"rows" binding:"required,min=1"`
}

// POST /api/imports/batches
func (h *ImportHandler) ResolveBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, bindErr(err))
		return
	}
	if len(req.Rows) > maxBatchRows {
		response.RespondErr(c, types.Validation("batch exceeds %d rows", maxBatchRows))
		return
	}
	batchID := uuid.New()
	if req.BatchID != nil && *req.BatchID != uuid.Nil {
		batchID = *req.BatchID
	}
	summary, err := h.resolver.ResolveBatch(c.Request.Context(), batchID, req.Rows)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}
