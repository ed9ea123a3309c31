package cases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is the identity record behind every case, keyed by normalized CPF.
type Client struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CPF         string    `gorm:"column:cpf;type:varchar(11);not null;uniqueIndex:idx_client_cpf" json:"cpf"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	BankCode    string    `gorm:"column:bank_code" json:"bank_code,omitempty"`
	BankAgency  string    `gorm:"column:bank_agency" json:"bank_agency,omitempty"`
	BankAccount string    `gorm:"column:bank_account" json:"bank_account,omitempty"`
	Cargo       string    `gorm:"column:cargo" json:"cargo,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string { return "client" }

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ClientEnrollment is one payroll registration (matricula) of a client at an
// employer (orgao). Unique per (client_id, matricula).
type ClientEnrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;column:client_id;not null;uniqueIndex:idx_client_enrollment_client_matricula,priority:1" json:"client_id"`
	Matricula string    `gorm:"column:matricula;not null;uniqueIndex:idx_client_enrollment_client_matricula,priority:2" json:"matricula"`
	Orgao     string    `gorm:"column:orgao;index" json:"orgao,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ClientEnrollment) TableName() string { return "client_enrollment" }

func (e *ClientEnrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
