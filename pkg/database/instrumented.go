package database

import (
	"database/sql"

	"github.com/XSAM/otelsql"
	"workclock.service/internal/config"
)

// NewInstrumentedConnection creates a database connection with OpenTelemetry instrumentation.
func NewInstrumentedConnection(cfg config.Config) (*sql.DB, error) {
	driver, dsn, system, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	// otelsql.Open wraps the driver to intercept queries and create spans
	db, err := otelsql.Open(driver, dsn,
		otelsql.WithAttributes(system),
		otelsql.WithSQLCommenter(driver == DriverPostgres),
	)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
