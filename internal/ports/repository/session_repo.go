package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"workclock.service/internal/core/model"
)

const sessionColumns = `id, employee_id, clock_in, clock_out, work_duration_minutes, ip_address, gps_lat, gps_lng, adjusted_by, adjustment_note`

func scanSession(row rowScanner) (*model.Session, error) {
	var (
		s          model.Session
		clockOut   sql.NullTime
		minutes    sql.NullInt64
		ip         sql.NullString
		lat, lng   sql.NullFloat64
		adjustedBy sql.NullInt64
		note       sql.NullString
	)
	err := row.Scan(&s.ID, &s.EmployeeID, &s.ClockIn, &clockOut, &minutes, &ip, &lat, &lng, &adjustedBy, &note)
	if err != nil {
		return nil, err
	}
	s.ClockIn = s.ClockIn.UTC()
	if clockOut.Valid {
		t := clockOut.Time.UTC()
		s.ClockOut = &t
	}
	if minutes.Valid {
		s.WorkDurationMinutes = &minutes.Int64
	}
	if ip.Valid {
		s.IPAddress = &ip.String
	}
	if lat.Valid {
		s.GPSLat = &lat.Float64
	}
	if lng.Valid {
		s.GPSLng = &lng.Float64
	}
	if adjustedBy.Valid {
		s.AdjustedBy = &adjustedBy.Int64
	}
	if note.Valid {
		s.AdjustmentNote = &note.String
	}
	return &s, nil
}

// querySession runs a single-row query; no row is reported as nil, nil.
func (r *SQLRepository) querySession(ctx context.Context, query string, args ...any) (*model.Session, error) {
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSession opens a session. The partial unique index on open sessions
// makes this insert the compare-and-swap on the kiosk slot.
func (r *SQLRepository) CreateSession(ctx context.Context, s *model.Session) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.employee_id", s.EmployeeID))

	query := `INSERT INTO attendance_sessions (employee_id, clock_in, ip_address, gps_lat, gps_lng)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`

	s.ClockIn = s.ClockIn.UTC()
	err := r.DB.QueryRowContext(ctx, query,
		s.EmployeeID, s.ClockIn, nullString(s.IPAddress), nullFloat(s.GPSLat), nullFloat(s.GPSLng),
	).Scan(&s.ID)
	if isUniqueViolation(err) {
		return model.ErrKioskOccupied
	}
	return err
}

// GetSession fetches a complete ledger entry by its ID.
func (r *SQLRepository) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	s, err := r.querySession(ctx, `SELECT `+sessionColumns+` FROM attendance_sessions WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: session %d", model.ErrNotFound, id)
	}
	return s, nil
}

// FindOpenSession returns the open session of anyone other than excludeEmployeeID.
func (r *SQLRepository) FindOpenSession(ctx context.Context, excludeEmployeeID int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + `
              FROM attendance_sessions
              WHERE clock_out IS NULL AND employee_id <> $1
              ORDER BY clock_in DESC
              LIMIT 1`
	return r.querySession(ctx, query, excludeEmployeeID)
}

// FindOpenSessionForEmployee get the active shift for an employee
func (r *SQLRepository) FindOpenSessionForEmployee(ctx context.Context, employeeID int64) (*model.Session, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.employee_id", employeeID))

	query := `SELECT ` + sessionColumns + `
              FROM attendance_sessions
              WHERE employee_id = $1 AND clock_out IS NULL
              ORDER BY clock_in DESC
              LIMIT 1`
	return r.querySession(ctx, query, employeeID)
}

// CloseSession do checkout. Reports model.ErrNotFound if the session is
// missing or was already closed by a concurrent request.
func (r *SQLRepository) CloseSession(ctx context.Context, id int64, clockOut time.Time, minutes int64) error {
	query := `UPDATE attendance_sessions
              SET clock_out = $1,
                  work_duration_minutes = $2
              WHERE id = $3 AND clock_out IS NULL`

	res, err := r.DB.ExecContext(ctx, query, clockOut.UTC(), minutes, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "open session", id)
}

// UpdateSession rewrites timestamps, duration and adjustment fields wholesale.
func (r *SQLRepository) UpdateSession(ctx context.Context, s *model.Session) error {
	query := `UPDATE attendance_sessions
              SET clock_in = $1,
                  clock_out = $2,
                  work_duration_minutes = $3,
                  adjusted_by = $4,
                  adjustment_note = $5
              WHERE id = $6`

	var clockOut sql.NullTime
	if s.ClockOut != nil {
		clockOut = sql.NullTime{Time: s.ClockOut.UTC(), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query,
		s.ClockIn.UTC(), clockOut, nullInt(s.WorkDurationMinutes), nullInt(s.AdjustedBy), nullString(s.AdjustmentNote), s.ID,
	)
	if isUniqueViolation(err) {
		return model.ErrKioskOccupied
	}
	if err != nil {
		return err
	}
	return expectOneRow(res, "session", s.ID)
}

// AnnotateSession stamps the adjuster and note without touching timestamps.
func (r *SQLRepository) AnnotateSession(ctx context.Context, id int64, adjustedBy int64, note string) error {
	query := `UPDATE attendance_sessions SET adjusted_by = $1, adjustment_note = $2 WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, adjustedBy, note, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "session", id)
}

// sessionWhere builds the WHERE clause for a filter with ascending placeholders.
func sessionWhere(f model.SessionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.EmployeeID != 0 {
		add("employee_id = $%d", f.EmployeeID)
	}
	if !f.From.IsZero() {
		add("clock_in >= $%d", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("clock_in < $%d", f.To.UTC())
	}
	if f.OnlyClosed {
		conds = append(conds, "work_duration_minutes IS NOT NULL")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListSessions returns matching sessions ordered by clock_in descending.
func (r *SQLRepository) ListSessions(ctx context.Context, f model.SessionFilter) ([]model.Session, error) {
	where, args := sessionWhere(f)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+sessionColumns+` FROM attendance_sessions`+where+` ORDER BY clock_in DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// SumWorkedMinutes totals work_duration_minutes over closed matching sessions.
func (r *SQLRepository) SumWorkedMinutes(ctx context.Context, f model.SessionFilter) (int64, error) {
	f.OnlyClosed = true
	where, args := sessionWhere(f)

	var total int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(work_duration_minutes), 0) FROM attendance_sessions`+where, args...).Scan(&total)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return total, nil
}

// CountActiveEmployees counts distinct employees currently clocked in.
func (r *SQLRepository) CountActiveEmployees(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT employee_id) FROM attendance_sessions WHERE clock_out IS NULL`).Scan(&n)
	return n, err
}
