package cases

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

type CaseRepo interface {
	Create(dbc dbctx.Context, c *types.Case) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Case, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Case, error)
	FindOpenByClient(dbc dbctx.Context, clientID uuid.UUID) (*types.Case, error)
	ListExpired(dbc dbctx.Context, now time.Time, limit int) ([]*types.Case, error)
	ListExpiringBetween(dbc dbctx.Context, from, to time.Time) ([]*types.Case, error)
	ListByStatus(dbc dbctx.Context, statuses []types.Status, limit int) ([]*types.Case, error)
	UpdateFieldsCAS(dbc dbctx.Context, id uuid.UUID, version int64, updates map[string]interface{}) (bool, error)
}

type caseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseRepo(db *gorm.DB, baseLog *logger.Logger) CaseRepo {
	return &caseRepo{
		db:  db,
		log: baseLog.With("repo", "CaseRepo"),
	}
}

func (r *caseRepo) Create(dbc dbctx.Context, c *types.Case) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if c == nil {
		return nil
	}
	return transaction.WithContext(dbc.Context()).Create(c).Error
}

func (r *caseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Case
	err := transaction.WithContext(dbc.Context()).
		Where("id = ?", id).
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

// LockByID reads the row with SELECT ... FOR UPDATE. Callers must pass a
// transaction; outside one the lock is released immediately.
func (r *caseRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Case
	err := transaction.WithContext(dbc.Context()).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepo) FindOpenByClient(dbc dbctx.Context, clientID uuid.UUID) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if clientID == uuid.Nil {
		return nil, nil
	}
	var c types.Case
	err := transaction.WithContext(dbc.Context()).
		Where("client_id = ? AND status NOT IN ?", clientID, types.TerminalStatusStrings()).
		Order("created_at ASC").
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

// ListExpired returns cases whose lock deadline is strictly before now,
// oldest deadline first.
func (r *caseRepo) ListExpired(dbc dbctx.Context, now time.Time, limit int) ([]*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Case
	q := transaction.WithContext(dbc.Context()).
		Where("assignment_expires_at IS NOT NULL AND assignment_expires_at < ?", now.UTC()).
		Order("assignment_expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListExpiringBetween returns held cases with from <= deadline <= to.
func (r *caseRepo) ListExpiringBetween(dbc dbctx.Context, from, to time.Time) ([]*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Case
	if to.Before(from) {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("assignment_expires_at IS NOT NULL AND assignment_expires_at >= ? AND assignment_expires_at <= ?", from.UTC(), to.UTC()).
		Order("assignment_expires_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseRepo) ListByStatus(dbc dbctx.Context, statuses []types.Status, limit int) ([]*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Case
	q := transaction.WithContext(dbc.Context()).Order("created_at ASC")
	if len(statuses) > 0 {
		raw := make([]string, 0, len(statuses))
		for _, s := range statuses {
			raw = append(raw, string(s))
		}
		q = q.Where("status IN ?", raw)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFieldsCAS applies updates only when the row still carries version,
// bumping it by one. It reports false when another writer got there first.
func (r *caseRepo) UpdateFieldsCAS(dbc dbctx.Context, id uuid.UUID, version int64, updates map[string]interface{}) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	updates["version"] = gorm.Expr("version + 1")

	res := transaction.WithContext(dbc.Context()).
		Model(&types.Case{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
