package cases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

// CaseEventRepo is append-only: there is no update or delete.
type CaseEventRepo interface {
	Append(dbc dbctx.Context, events ...*types.CaseEvent) error
	ListByCase(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseEvent, error)
	ListByTypesSince(dbc dbctx.Context, eventTypes []string, since time.Time) ([]*types.CaseEvent, error)
}

type caseEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseEventRepo(db *gorm.DB, baseLog *logger.Logger) CaseEventRepo {
	return &caseEventRepo{
		db:  db,
		log: baseLog.With("repo", "CaseEventRepo"),
	}
}

func (r *caseEventRepo) Append(dbc dbctx.Context, events ...*types.CaseEvent) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	rows := make([]*types.CaseEvent, 0, len(events))
	for _, ev := range events {
		if ev != nil {
			rows = append(rows, ev)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Context()).Create(&rows).Error
}

func (r *caseEventRepo) ListByCase(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CaseEvent
	if caseID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseEventRepo) ListByTypesSince(dbc dbctx.Context, eventTypes []string, since time.Time) ([]*types.CaseEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CaseEvent
	if len(eventTypes) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("type IN ? AND created_at >= ?", eventTypes, since.UTC()).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
