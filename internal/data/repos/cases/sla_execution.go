package cases

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

type SlaExecutionRepo interface {
	Create(dbc dbctx.Context, exec *types.SlaExecution) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SlaExecution, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.SlaExecution, error)
}

type slaExecutionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSlaExecutionRepo(db *gorm.DB, baseLog *logger.Logger) SlaExecutionRepo {
	return &slaExecutionRepo{
		db:  db,
		log: baseLog.With("repo", "SlaExecutionRepo"),
	}
}

func (r *slaExecutionRepo) Create(dbc dbctx.Context, exec *types.SlaExecution) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if exec == nil {
		return nil
	}
	return transaction.WithContext(dbc.Context()).Create(exec).Error
}

func (r *slaExecutionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SlaExecution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var exec types.SlaExecution
	if err := transaction.WithContext(dbc.Context()).
		Where("id = ?", id).
		Limit(1).
		Find(&exec).Error; err != nil {
		return nil, err
	}
	if exec.ID == uuid.Nil {
		return nil, nil
	}
	return &exec, nil
}

func (r *slaExecutionRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.SlaExecution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var out []*types.SlaExecution
	if err := transaction.WithContext(dbc.Context()).
		Order("executed_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
