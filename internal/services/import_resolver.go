package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	caserepos "github.com/yungbote/esteira-backend/internal/data/repos/cases"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/clock"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

// Resolution is what EnsureClientCase found or made for one import row.
type Resolution struct {
	Client        *types.Client           `json:"client"`
	Enrollment    *types.ClientEnrollment `json:"enrollment,omitempty"`
	Case          *types.Case             `json:"case"`
	ClientCreated bool                    `json:"client_created"`
	CaseCreated   bool                    `json:"case_created"`
}

type RowError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type BatchSummary struct {
	BatchID        uuid.UUID  `json:"batch_id"`
	Total          int        `json:"total"`
	ClientsCreated int        `json:"clients_created"`
	CasesCreated   int        `json:"cases_created"`
	CasesExisting  int        `json:"cases_existing"`
	Failed         int        `json:"failed"`
	Errors         []RowError `json:"errors"`
}

// ImportResolver maps normalized payroll rows onto clients, enrollments and
// open cases without ever duplicating any of them.
type ImportResolver interface {
	GetOrCreateClientWithEnrollment(dbc dbctx.Context, cpf, matricula, orgao, name string) (*types.Client, *types.ClientEnrollment, error)
	EnsureClientCase(dbc dbctx.Context, row types.ImportRow) (*Resolution, error)
	ResolveBatch(ctx context.Context, batchID uuid.UUID, rows []types.ImportRow) (*BatchSummary, error)
}

type importResolver struct {
	db          *gorm.DB
	log         *logger.Logger
	clock       clock.Clock
	clients     caserepos.ClientRepo
	enrollments caserepos.EnrollmentRepo
	cases       caserepos.CaseRepo
	events      caserepos.CaseEventRepo
	validate    *validator.Validate
	concurrency int
}

func NewImportResolver(
	db *gorm.DB,
	baseLog *logger.Logger,
	clk clock.Clock,
	clients caserepos.ClientRepo,
	enrollments caserepos.EnrollmentRepo,
	cases caserepos.CaseRepo,
	events caserepos.CaseEventRepo,
	concurrency int,
) ImportResolver {
	if clk == nil {
		clk = clock.Real()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &importResolver{
		db:          db,
		log:         baseLog.With("service", "ImportResolver"),
		clock:       clk,
		clients:     clients,
		enrollments: enrollments,
		cases:       cases,
		events:      events,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		concurrency: concurrency,
	}
}

func (r *importResolver) GetOrCreateClientWithEnrollment(dbc dbctx.Context, cpf, matricula, orgao, name string) (client *types.Client, enrollment *types.ClientEnrollment, err error) {
	normalized, err := types.NormalizeCPF(cpf)
	if err != nil {
		return nil, nil, err
	}
	err = inTx(r.db, dbc, func(txc dbctx.Context) error {
		var err error
		client, _, err = r.clientTx(txc, normalized, name)
		if err != nil {
			return err
		}
		enrollment, err = r.enrollmentTx(txc, client.ID, matricula, orgao)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return client, enrollment, nil
}

func (r *importResolver) clientTx(dbc dbctx.Context, cpf, name string) (*types.Client, bool, error) {
	name = strings.TrimSpace(name)
	existing, err := r.clients.GetByCPF(dbc, cpf)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		candidate := &types.Client{CPF: cpf, Name: name}
		created, err := r.clients.CreateIfAbsent(dbc, candidate)
		if err != nil {
			return nil, false, fmt.Errorf("create client: %w", err)
		}
		if created {
			return candidate, true, nil
		}
		// Lost the race to a concurrent import; read the winner.
		existing, err = r.clients.GetByCPF(dbc, cpf)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("client vanished after conflict: %w", types.ErrConflict)
		}
	}
	if existing.Name == "" && name != "" {
		if err := r.clients.UpdateFields(dbc, existing.ID, map[string]interface{}{"name": name}); err != nil {
			return nil, false, err
		}
		existing.Name = name
	}
	return existing, false, nil
}

func (r *importResolver) enrollmentTx(dbc dbctx.Context, clientID uuid.UUID, matricula, orgao string) (*types.ClientEnrollment, error) {
	matricula = strings.TrimSpace(matricula)
	orgao = strings.TrimSpace(orgao)
	if matricula == "" {
		return nil, nil
	}
	existing, err := r.enrollments.GetByClientMatricula(dbc, clientID, matricula)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		candidate := &types.ClientEnrollment{ClientID: clientID, Matricula: matricula, Orgao: orgao}
		created, err := r.enrollments.CreateIfAbsent(dbc, candidate)
		if err != nil {
			return nil, fmt.Errorf("create enrollment: %w", err)
		}
		if created {
			return candidate, nil
		}
		existing, err = r.enrollments.GetByClientMatricula(dbc, clientID, matricula)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("enrollment vanished after conflict: %w", types.ErrConflict)
		}
	}
	if existing.Orgao == "" && orgao != "" {
		if err := r.enrollments.UpdateFields(dbc, existing.ID, map[string]interface{}{"orgao": orgao}); err != nil {
			return nil, err
		}
		existing.Orgao = orgao
	}
	return existing, nil
}

// EnsureClientCase returns the client's open case, creating it in novo when
// none exists. Provenance fields are only written on creation.
func (r *importResolver) EnsureClientCase(dbc dbctx.Context, row types.ImportRow) (out *Resolution, err error) {
	dbc, span := startSpan(dbc, "ImportResolver.EnsureClientCase")
	defer func() { endSpan(span, err) }()

	if err := r.validate.Struct(row); err != nil {
		return nil, types.Validation("import row: %v", err)
	}
	cpf, err := types.NormalizeCPF(row.CPF)
	if err != nil {
		return nil, err
	}

	err = inTx(r.db, dbc, func(txc dbctx.Context) error {
		client, clientCreated, err := r.clientTx(txc, cpf, row.Nome)
		if err != nil {
			return err
		}
		enrollment, err := r.enrollmentTx(txc, client.ID, row.Matricula, row.Orgao)
		if err != nil {
			return err
		}
		res := &Resolution{Client: client, Enrollment: enrollment, ClientCreated: clientCreated}

		open, err := r.cases.FindOpenByClient(txc, client.ID)
		if err != nil {
			return err
		}
		if open != nil {
			res.Case = open
			out = res
			return nil
		}

		now := r.clock.Now()
		c := &types.Case{
			ClientID:      client.ID,
			Status:        types.StatusNovo,
			Source:        types.SourceImport,
			EntityCode:    strings.TrimSpace(row.EntityCode),
			RefMonth:      row.RefMonth,
			RefYear:       row.RefYear,
			ImportBatchID: row.ImportBatchID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if enrollment != nil {
			id := enrollment.ID
			c.EnrollmentID = &id
		}

		// The open-case index may reject the insert when another import
		// created the case first; the savepoint keeps the outer tx usable.
		createErr := txc.Tx.Transaction(func(sp *gorm.DB) error {
			return r.cases.Create(txc.WithTx(sp), c)
		})
		if createErr != nil {
			if !caserepos.IsUniqueViolation(createErr, "idx_case_record_open_client") {
				return fmt.Errorf("create case: %w", createErr)
			}
			open, err = r.cases.FindOpenByClient(txc, client.ID)
			if err != nil {
				return err
			}
			if open == nil {
				return fmt.Errorf("open case for client %s after conflict: %w", client.ID, types.ErrConflict)
			}
			res.Case = open
			out = res
			return nil
		}

		ev, err := types.NewCaseEvent(c.ID, types.EventImportCaseCreated, types.ImportPayload{
			ImportBatchID: row.ImportBatchID,
			EntityCode:    c.EntityCode,
			RefMonth:      row.RefMonth,
			RefYear:       row.RefYear,
			Matricula:     strings.TrimSpace(row.Matricula),
			Orgao:         strings.TrimSpace(row.Orgao),
		}, nil, now)
		if err != nil {
			return err
		}
		if err := r.events.Append(txc, ev); err != nil {
			return fmt.Errorf("append case events: %w", err)
		}
		res.Case = c
		res.CaseCreated = true
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.CaseCreated {
		r.log.Debug("import created case", "case_id", out.Case.ID, "client_id", out.Client.ID)
	}
	return out, nil
}

// ResolveBatch resolves rows with bounded concurrency. Row failures are
// collected in the summary; only cancellation stops the batch.
func (r *importResolver) ResolveBatch(ctx context.Context, batchID uuid.UUID, rows []types.ImportRow) (*BatchSummary, error) {
	ctx, span := tracer.Start(ctx, "ImportResolver.ResolveBatch")
	span.SetAttributes(attribute.String("batch_id", batchID.String()), attribute.Int("rows", len(rows)))
	defer span.End()

	results := make([]*Resolution, len(rows))
	failures := make([]error, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range rows {
		row := rows[i]
		if row.ImportBatchID == nil && batchID != uuid.Nil {
			id := batchID
			row.ImportBatchID = &id
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			res, err := r.EnsureClientCase(dbctx.Context{Ctx: gctx}, row)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	summary := &BatchSummary{BatchID: batchID, Total: len(rows), Errors: []RowError{}}
	for i := range rows {
		if failures[i] != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Index: i, Error: failures[i].Error()})
			continue
		}
		res := results[i]
		if res.ClientCreated {
			summary.ClientsCreated++
		}
		if res.CaseCreated {
			summary.CasesCreated++
		} else {
			summary.CasesExisting++
		}
	}

	r.log.Info("import batch resolved",
		"batch_id", batchID,
		"total", summary.Total,
		"cases_created", summary.CasesCreated,
		"cases_existing", summary.CasesExisting,
		"failed", summary.Failed,
	)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("import batch %s interrupted: %w", batchID, err)
	}
	return summary, nil
}
