package services

import (
	"fmt"

	"github.com/google/uuid"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

const maxListLimit = 500

// CaseQueryService is the read side used by the admin surface.
type CaseQueryService interface {
	Get(dbc dbctx.Context, caseID uuid.UUID) (*types.Case, error)
	ListByStatus(dbc dbctx.Context, statuses []types.Status, limit int) ([]*types.Case, error)
	Events(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseEvent, error)
	Executions(dbc dbctx.Context, limit int) ([]*types.SlaExecution, error)
}

type caseQueryService struct {
	log        *logger.Logger
	cases      caserepos.CaseRepo
	events     caserepos.CaseEventRepo
	executions caserepos.SlaExecutionRepo
}

func NewCaseQueryService(
	baseLog *logger.Logger,
	cases caserepos.CaseRepo,
	events caserepos.CaseEventRepo,
	executions caserepos.SlaExecutionRepo,
) CaseQueryService {
	return &caseQueryService{
		log:        baseLog.With("service", "CaseQueryService"),
		cases:      cases,
		events:     events,
		executions: executions,
	}
}

func (s *caseQueryService) Get(dbc dbctx.Context, caseID uuid.UUID) (*types.Case, error) {
	c, err := s.cases.GetByID(dbc, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
	}
	return c, nil
}

func (s *caseQueryService) ListByStatus(dbc dbctx.Context, statuses []types.Status, limit int) ([]*types.Case, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, types.Validation("unknown status %q", st)
		}
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.cases.ListByStatus(dbc, statuses, limit)
}

func (s *caseQueryService) Events(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseEvent, error) {
	if _, err := s.Get(dbc, caseID); err != nil {
		return nil, err
	}
	return s.events.ListByCase(dbc, caseID)
}

func (s *caseQueryService) Executions(dbc dbctx.Context, limit int) ([]*types.SlaExecution, error) {
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.executions.ListRecent(dbc, limit)
}
