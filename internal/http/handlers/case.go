package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/http/response"
	"github.com/yungbote/esteira-backend/internal/services"
)

type CaseHandler struct {
	locks   services.AssignmentLockManager
	machine services.StatusMachine
	queries services.CaseQueryService
}

func NewCaseHandler(locks services.AssignmentLockManager, machine services.StatusMachine, queries services.CaseQueryService) *CaseHandler {
	return &CaseHandler{locks: locks, machine: machine, queries: queries}
}

// GET /api/cases?status=novo,atribuido&limit=100
func (h *CaseHandler) ListCases(c *gin.Context) {
	var statuses []types.Status
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, types.Status(s))
		}
	}
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	list, err := h.queries.ListByStatus(requestDBC(c), statuses, limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cases": list})
}

// GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	cs, err := h.queries.Get(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"case": cs})
}

// GET /api/cases/:id/events
func (h *CaseHandler) ListEvents(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	events, err := h.queries.Events(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// GET /api/cases/:id/assignments
func (h *CaseHandler) History(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	history, err := h.locks.History(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": history})
}

type claimRequest struct {
	// UserID lets a supervisor assign on someone's behalf; it defaults to
	// the requesting actor.
	UserID    *uuid.UUID `json:"user_id"`
	LockHours float64    `json:"lock_hours" binding:"gte=0,lte=720"`
}

// POST /api/cases/:id/claim
func (h *CaseHandler) Claim(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req claimRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondErr(c, bindErr(err))
			return
		}
	}
	userID := uuid.Nil
	if req.UserID != nil {
		userID = *req.UserID
	} else if userID, err = requireActor(c); err != nil {
		response.RespondErr(c, err)
		return
	}
	cs, err := h.locks.Claim(requestDBC(c), id, userID, req.LockHours)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"case": cs})
}

type releaseRequest struct {
	Reason types.AssignmentReason `json:"reason"`
}

// POST /api/cases/:id/release
func (h *CaseHandler) Release(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req releaseRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondErr(c, bindErr(err))
			return
		}
	}
	if req.Reason == "" {
		req.Reason = types.ReasonManual
	}
	cs, err := h.locks.Release(requestDBC(c), id, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"case": cs})
}

type transitionRequest struct {
	Status  types.Status   `json:"status" binding:"required"`
	Note    string         `json:"note"`
	Payload map[string]any `json:"payload"`
}

// POST /api/cases/:id/transition
func (h *CaseHandler) Transition(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, bindErr(err))
		return
	}
	payload := req.Payload
	if req.Note != "" {
		if payload == nil {
			payload = map[string]any{}
		}
		payload["note"] = req.Note
	}
	cs, err := h.machine.Transition(requestDBC(c), id, req.Status, actor, payload)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"case": cs})
}

type reopenRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// POST /api/cases/:id/reopen
func (h *CaseHandler) Reopen(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req reopenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, bindErr(err))
		return
	}
	cs, err := h.machine.Reopen(requestDBC(c), id, actor, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"case": cs})
}
