package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Both dialects share the same partial unique index on open sessions: at most
// one row may have clock_out IS NULL, which is what serializes the kiosk.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(120) NOT NULL,
		pin_hash VARCHAR(255),
		password_hash VARCHAR(255),
		role VARCHAR(20) NOT NULL DEFAULT 'employee',
		hourly_rate NUMERIC(10,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS employees_email_key ON employees (email)`,
	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		id SERIAL PRIMARY KEY,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		clock_in TIMESTAMPTZ NOT NULL,
		clock_out TIMESTAMPTZ,
		work_duration_minutes INTEGER,
		ip_address VARCHAR(45),
		gps_lat DOUBLE PRECISION,
		gps_lng DOUBLE PRECISION,
		adjusted_by INTEGER REFERENCES employees(id),
		adjustment_note TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS attendance_sessions_employee_clock_in ON attendance_sessions (employee_id, clock_in)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS attendance_single_open_session ON attendance_sessions ((clock_out IS NULL)) WHERE clock_out IS NULL`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id SERIAL PRIMARY KEY,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		type VARCHAR(50) NOT NULL,
		message TEXT,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_type_sent_at ON notifications (type, sent_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(120) NOT NULL,
		pin_hash VARCHAR(255),
		password_hash VARCHAR(255),
		role VARCHAR(20) NOT NULL DEFAULT 'employee',
		hourly_rate NUMERIC(10,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS employees_email_key ON employees (email)`,
	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		clock_in DATETIME NOT NULL,
		clock_out DATETIME,
		work_duration_minutes INTEGER,
		ip_address VARCHAR(45),
		gps_lat REAL,
		gps_lng REAL,
		adjusted_by INTEGER REFERENCES employees(id),
		adjustment_note TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS attendance_sessions_employee_clock_in ON attendance_sessions (employee_id, clock_in)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS attendance_single_open_session ON attendance_sessions ((clock_out IS NULL)) WHERE clock_out IS NULL`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		type VARCHAR(50) NOT NULL,
		message TEXT,
		sent_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_type_sent_at ON notifications (type, sent_at)`,
}

// Migrate creates the schema if it does not exist yet. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverPostgres, "postgres", "":
		stmts = postgresSchema
	case DriverSQLite, "sqlite":
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
