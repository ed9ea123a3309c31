package cases

import "github.com/google/uuid"

// ImportRow is one normalized payroll record handed over by the import
// pipeline. The resolver treats it as already parsed; only the fields below
// are read.
type ImportRow struct {
	CPF           string     `json:"cpf" validate:"required,max=20"`
	Matricula     string     `json:"matricula" validate:"max=64"`
	Orgao         string     `json:"orgao" validate:"max=128"`
	Nome          string     `json:"nome" validate:"max=255"`
	EntityCode    string     `json:"entity_code" validate:"max=64"`
	RefMonth      int        `json:"ref_month" validate:"omitempty,min=1,max=12"`
	RefYear       int        `json:"ref_year" validate:"omitempty,min=1900,max=2999"`
	ImportBatchID *uuid.UUID `json:"import_batch_id,omitempty"`
}
