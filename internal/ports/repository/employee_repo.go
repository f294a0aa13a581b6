package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"workclock.service/internal/core/model"
)

const employeeColumns = `id, name, email, pin_hash, password_hash, role, hourly_rate, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*model.Employee, error) {
	var (
		e            model.Employee
		pinHash      sql.NullString
		passwordHash sql.NullString
		role         string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Email, &pinHash, &passwordHash, &role, &e.HourlyRate, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.PINHash = pinHash.String
	e.PasswordHash = passwordHash.String
	e.Role = model.Role(role)
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func (r *SQLRepository) queryEmployees(ctx context.Context, query string, args ...any) ([]model.Employee, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// CreateEmployee inserts e and sets its ID. A taken email yields model.ErrDuplicateIdentity.
func (r *SQLRepository) CreateEmployee(ctx context.Context, e *model.Employee) error {
	query := `INSERT INTO employees (name, email, pin_hash, password_hash, role, hourly_rate, is_active, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	e.CreatedAt = e.CreatedAt.UTC()
	err := r.DB.QueryRowContext(ctx, query,
		e.Name, e.Email, optionalString(e.PINHash), optionalString(e.PasswordHash),
		string(e.Role), e.HourlyRate, e.IsActive, e.CreatedAt,
	).Scan(&e.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", model.ErrDuplicateIdentity, e.Email)
	}
	return err
}

// GetEmployee fetches an employee by id.
func (r *SQLRepository) GetEmployee(ctx context.Context, id int64) (*model.Employee, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.employee_id", id))

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	e, err := scanEmployee(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: employee %d", model.ErrNotFound, id)
	}
	return e, err
}

// GetEmployeeByEmail returns nil, nil when no employee uses the email.
func (r *SQLRepository) GetEmployeeByEmail(ctx context.Context, email string) (*model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1`
	e, err := scanEmployee(r.DB.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// ListActiveEmployees returns every active employee and manager ordered by name.
func (r *SQLRepository) ListActiveEmployees(ctx context.Context) ([]model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE is_active = $1 ORDER BY name, id`
	return r.queryEmployees(ctx, query, true)
}

// ListActiveManagers returns active managers ordered by name.
func (r *SQLRepository) ListActiveManagers(ctx context.Context) ([]model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE is_active = $1 AND role = $2 ORDER BY name, id`
	return r.queryEmployees(ctx, query, true, string(model.RoleManager))
}

// ListStaff returns non-manager employees, optionally including deactivated ones.
func (r *SQLRepository) ListStaff(ctx context.Context, includeInactive bool) ([]model.Employee, error) {
	if includeInactive {
		query := `SELECT ` + employeeColumns + ` FROM employees WHERE role <> $1 ORDER BY name, id`
		return r.queryEmployees(ctx, query, string(model.RoleManager))
	}
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE role <> $1 AND is_active = $2 ORDER BY name, id`
	return r.queryEmployees(ctx, query, string(model.RoleManager), true)
}

// UpdateEmployee rewrites the mutable employee fields.
func (r *SQLRepository) UpdateEmployee(ctx context.Context, e *model.Employee) error {
	query := `UPDATE employees
              SET name = $1,
                  email = $2,
                  pin_hash = $3,
                  password_hash = $4,
                  role = $5,
                  hourly_rate = $6,
                  is_active = $7
              WHERE id = $8`

	res, err := r.DB.ExecContext(ctx, query,
		e.Name, e.Email, optionalString(e.PINHash), optionalString(e.PasswordHash),
		string(e.Role), e.HourlyRate, e.IsActive, e.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", model.ErrDuplicateIdentity, e.Email)
	}
	if err != nil {
		return err
	}
	return expectOneRow(res, "employee", e.ID)
}

// DeleteEmployee hard-deletes an employee together with its sessions and notifications.
func (r *SQLRepository) DeleteEmployee(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_sessions WHERE employee_id = $1`, id); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE employee_id = $1`, id); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	// Sessions this employee adjusted for others keep their note but lose the reference.
	if _, err := tx.ExecContext(ctx, `UPDATE attendance_sessions SET adjusted_by = NULL WHERE adjusted_by = $1`, id); err != nil {
		return fmt.Errorf("clear adjuster: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(res, "employee", id); err != nil {
		return err
	}
	return tx.Commit()
}

func optionalString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOneRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", model.ErrNotFound, what, id)
	}
	return nil
}
