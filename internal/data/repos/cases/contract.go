package cases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

type ContractRepo interface {
	Create(dbc dbctx.Context, c *types.Contract) error
	GetByCase(dbc dbctx.Context, caseID uuid.UUID) (*types.Contract, error)
	UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, from []types.ContractStatus, to types.ContractStatus, updates map[string]interface{}) (bool, error)
}

type contractRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContractRepo(db *gorm.DB, baseLog *logger.Logger) ContractRepo {
	return &contractRepo{
		db:  db,
		log: baseLog.With("repo", "ContractRepo"),
	}
}

func (r *contractRepo) Create(dbc dbctx.Context, c *types.Contract) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if c == nil {
		return nil
	}
	return transaction.WithContext(dbc.Context()).Create(c).Error
}

func (r *contractRepo) GetByCase(dbc dbctx.Context, caseID uuid.UUID) (*types.Contract, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if caseID == uuid.Nil {
		return nil, nil
	}
	var c types.Contract
	if err := transaction.WithContext(dbc.Context()).
		Where("case_id = ?", caseID).
		Limit(1).
		Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

// UpdateStatusFrom moves the contract to `to` only while its status is one of
// from, reporting whether a row changed.
func (r *contractRepo) UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, from []types.ContractStatus, to types.ContractStatus, updates map[string]interface{}) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(from) == 0 {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = string(to)
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.Contract{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type SimulationRepo interface {
	Create(dbc dbctx.Context, s *types.Simulation) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Simulation, error)
}

type simulationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSimulationRepo(db *gorm.DB, baseLog *logger.Logger) SimulationRepo {
	return &simulationRepo{
		db:  db,
		log: baseLog.With("repo", "SimulationRepo"),
	}
}

func (r *simulationRepo) Create(dbc dbctx.Context, s *types.Simulation) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if s == nil {
		return nil
	}
	return transaction.WithContext(dbc.Context()).Create(s).Error
}

func (r *simulationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Simulation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var s types.Simulation
	if err := transaction.WithContext(dbc.Context()).
		Where("id = ?", id).
		Limit(1).
		Find(&s).Error; err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}
