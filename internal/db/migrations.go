package db

import (
	"fmt"

	"gorm.io/gorm"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS violations (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		filename       TEXT NOT NULL,
		violation_type TEXT NOT NULL,
		confidence     REAL NOT NULL,
		timestamp      DATETIME NOT NULL,
		result_image   TEXT,
		bbox           TEXT,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_violation_type ON violations(violation_type);`,
	`CREATE INDEX IF NOT EXISTS idx_timestamp ON violations(timestamp);`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS violations (
		id             BIGSERIAL PRIMARY KEY,
		filename       TEXT NOT NULL,
		violation_type TEXT NOT NULL,
		confidence     DOUBLE PRECISION NOT NULL,
		timestamp      TIMESTAMPTZ NOT NULL,
		result_image   TEXT,
		bbox           JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_violation_type ON violations(violation_type);`,
	`CREATE INDEX IF NOT EXISTS idx_timestamp ON violations(timestamp);`,
}

func runMigrations(db *gorm.DB, driver string) error {
	statements := sqliteMigrations
	if driver == "postgres" {
		statements = postgresMigrations
	}
	for i, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
