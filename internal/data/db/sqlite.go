package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

// OpenSQLite opens a SQLite database for local runs and tests. path may be a
// file path or a "file:name?mode=memory&cache=shared" URI. The pool is pinned
// to one connection: SQLite serializes writers and row locks do not exist.
func OpenSQLite(path string, logg *logger.Logger, silent bool) (*gorm.DB, error) {
	cfg := gormConfig()
	if silent {
		cfg.Logger = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if logg != nil {
		logg.With("service", "SQLite").Info("opened sqlite", "path", path)
	}
	return db, nil
}
