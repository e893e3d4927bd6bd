// Package migrations creates the marksheet tables for the supported drivers.
package migrations

import (
	"database/sql"
	"fmt"
)

// Supported database drivers.
const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

// Tables lists the tables InitSchema creates, parents first.
var Tables = []string{"marksheets", "subject_marks"}

type dialect struct {
	real      string
	timestamp string
}

var dialects = map[string]dialect{
	Postgres: {real: "DOUBLE PRECISION", timestamp: "TIMESTAMPTZ"},
	SQLite:   {real: "REAL", timestamp: "DATETIME"},
}

func statements(d dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS marksheets (
	symbol_number  TEXT PRIMARY KEY,
	name           TEXT,
	roll_number    TEXT,
	program        TEXT,
	exam           TEXT,
	total_marks    %[1]s,
	obtained_marks %[1]s,
	result         TEXT,
	batch_id       TEXT NOT NULL,
	imported_at    %[2]s NOT NULL
)`, d.real, d.timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS subject_marks (
	symbol_number  TEXT NOT NULL REFERENCES marksheets(symbol_number) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	code           TEXT NOT NULL,
	full_marks     %[1]s NOT NULL,
	pass_marks     %[1]s NOT NULL,
	obtained_marks %[1]s,
	PRIMARY KEY (symbol_number, position)
)`, d.real),
		`CREATE INDEX IF NOT EXISTS idx_subject_marks_code ON subject_marks (code)`,
		`CREATE INDEX IF NOT EXISTS idx_marksheets_result ON marksheets (result)`,
	}
}

// InitSchema creates any missing tables and indexes.
func InitSchema(db *sql.DB, driver string) error {
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("unsupported driver %q", driver)
	}
	for _, stmt := range statements(d) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("error initializing schema: %w", err)
		}
	}
	return VerifySchema(db, driver)
}

// VerifySchema checks that all required tables exist.
func VerifySchema(db *sql.DB, driver string) error {
	var query string
	switch driver {
	case Postgres:
		query = `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = current_schema()
				AND table_name = $1
			)`
	case SQLite:
		query = `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}

	for _, table := range Tables {
		var exists bool
		if err := db.QueryRow(query, table).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}
	return nil
}
