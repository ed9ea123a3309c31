package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/esteira-backend/internal/domain/cases"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Clients
		// =========================
		&cases.Client{},
		&cases.ClientEnrollment{},

		// =========================
		// Queue
		// =========================
		&cases.Case{},
		&cases.CaseEvent{},
		&cases.SlaExecution{},

		// =========================
		// Finance collaborators
		// =========================
		&cases.Simulation{},
		&cases.Contract{},
	); err != nil {
		return err
	}
	return EnsureCaseIndexes(db)
}

// EnsureCaseIndexes creates indexes gorm tags cannot express. The statements
// are valid on both Postgres and SQLite.
func EnsureCaseIndexes(db *gorm.DB) error {
	quoted := make([]string, 0, len(cases.TerminalStatuses()))
	for _, s := range cases.TerminalStatusStrings() {
		quoted = append(quoted, "'"+s+"'")
	}

	// One open case per client. The resolver checks first; this catches races.
	if err := db.Exec(fmt.Sprintf(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_case_record_open_client
		ON case_record (client_id)
		WHERE status NOT IN (%s);
	`, strings.Join(quoted, ", "))).Error; err != nil {
		return fmt.Errorf("create idx_case_record_open_client: %w", err)
	}

	// Scheduler scan.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_case_record_lock_expiry
		ON case_record (assignment_expires_at)
		WHERE assignment_expires_at IS NOT NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_case_record_lock_expiry: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_case_event_case_created
		ON case_event (case_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_case_event_case_created: %w", err)
	}

	// Assignment statistics window.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_case_event_type_created
		ON case_event (type, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_case_event_type_created: %w", err)
	}
	return nil
}
