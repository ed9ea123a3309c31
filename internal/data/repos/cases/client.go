package cases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

type ClientRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Client, error)
	GetByCPF(dbc dbctx.Context, cpf string) (*types.Client, error)
	CreateIfAbsent(dbc dbctx.Context, c *types.Client) (bool, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return &clientRepo{
		db:  db,
		log: baseLog.With("repo", "ClientRepo"),
	}
}

func (r *clientRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Client, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Client
	if err := transaction.WithContext(dbc.Context()).
		Where("id = ?", id).
		Limit(1).
		Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *clientRepo) GetByCPF(dbc dbctx.Context, cpf string) (*types.Client, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if cpf == "" {
		return nil, nil
	}
	var c types.Client
	if err := transaction.WithContext(dbc.Context()).
		Where("cpf = ?", cpf).
		Limit(1).
		Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

// CreateIfAbsent inserts c unless a client with the same CPF exists. It
// reports whether this call inserted the row; on false the caller re-reads.
func (r *clientRepo) CreateIfAbsent(dbc dbctx.Context, c *types.Client) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cpf"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *clientRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.Client{}).
		Where("id = ?", id).
		Updates(updates).Error
}

type EnrollmentRepo interface {
	GetByClientMatricula(dbc dbctx.Context, clientID uuid.UUID, matricula string) (*types.ClientEnrollment, error)
	ListByClient(dbc dbctx.Context, clientID uuid.UUID) ([]*types.ClientEnrollment, error)
	CreateIfAbsent(dbc dbctx.Context, e *types.ClientEnrollment) (bool, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{
		db:  db,
		log: baseLog.With("repo", "EnrollmentRepo"),
	}
}

func (r *enrollmentRepo) GetByClientMatricula(dbc dbctx.Context, clientID uuid.UUID, matricula string) (*types.ClientEnrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if clientID == uuid.Nil || matricula == "" {
		return nil, nil
	}
	var e types.ClientEnrollment
	if err := transaction.WithContext(dbc.Context()).
		Where("client_id = ? AND matricula = ?", clientID, matricula).
		Limit(1).
		Find(&e).Error; err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		return nil, nil
	}
	return &e, nil
}

func (r *enrollmentRepo) ListByClient(dbc dbctx.Context, clientID uuid.UUID) ([]*types.ClientEnrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ClientEnrollment
	if clientID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("client_id = ?", clientID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) CreateIfAbsent(dbc dbctx.Context, e *types.ClientEnrollment) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "matricula"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.ClientEnrollment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
