package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// SQLRepository is the database/sql implementation of Repository. Queries are
// written once with $n placeholders, which both pgx and sqlite3 accept as long
// as every placeholder appears in ascending order.
type SQLRepository struct {
	DB *sql.DB
}

// NewSQLRepository create new instance
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

var _ Repository = (*SQLRepository)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
