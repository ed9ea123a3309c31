package cases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractAtivo     ContractStatus = "ativo"
	ContractEmRevisao ContractStatus = "em_revisao"
	ContractEfetivado ContractStatus = "efetivado"
	ContractCancelado ContractStatus = "cancelado"
)

// Contract is the bookkeeping record opened when a case reaches finance with
// an approved simulation. One per case.
type Contract struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID       uuid.UUID      `gorm:"type:uuid;column:case_id;not null;uniqueIndex:idx_contract_case" json:"case_id"`
	SimulationID *uuid.UUID     `gorm:"type:uuid;column:simulation_id" json:"simulation_id,omitempty"`
	Status       ContractStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (Contract) TableName() string { return "contract" }

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type SimulationStatus string

const (
	SimulationPendente  SimulationStatus = "pendente"
	SimulationAprovada  SimulationStatus = "aprovada"
	SimulationReprovada SimulationStatus = "reprovada"
)

// Simulation is the loan calculation a case is closed against. Only its
// approval state matters here.
type Simulation struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    uuid.UUID        `gorm:"type:uuid;column:case_id;not null;index" json:"case_id"`
	Status    SimulationStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
}

func (Simulation) TableName() string { return "simulation" }

func (s *Simulation) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Simulation) IsApproved() bool { return s != nil && s.Status == SimulationAprovada }
