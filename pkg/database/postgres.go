package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver
	_ "github.com/mattn/go-sqlite3"    // Register sqlite3 driver
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"workclock.service/internal/config"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// dataSource resolves the driver name, DSN and trace system attribute for cfg.
func dataSource(cfg config.Config) (driver, dsn string, system attribute.KeyValue, err error) {
	switch cfg.DBDriver {
	case DriverPostgres, "postgres", "":
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
		return DriverPostgres, dsn, semconv.DBSystemPostgreSQL, nil
	case DriverSQLite, "sqlite":
		// Foreign keys are off by default in sqlite.
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.DBPath)
		return DriverSQLite, dsn, semconv.DBSystemSqlite, nil
	default:
		return "", "", attribute.KeyValue{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// NewConnection creates and verifies a new database connection pool without tracing.
func NewConnection(cfg config.Config) (*sql.DB, error) {
	driver, dsn, _, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; also keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	// Ping the database to verify the connection is alive
	return db, db.Ping()
}
