package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"workclock.service/internal/core/model"
)

// AppendNotification writes a log entry. Entries are never updated.
func (r *SQLRepository) AppendNotification(ctx context.Context, n *model.Notification) error {
	query := `INSERT INTO notifications (employee_id, type, message, sent_at)
              VALUES ($1, $2, $3, $4) RETURNING id`

	n.SentAt = n.SentAt.UTC()
	return r.DB.QueryRowContext(ctx, query, n.EmployeeID, string(n.Type), n.Message, n.SentAt).Scan(&n.ID)
}

// FindNotification returns the first entry matching f, or nil, nil.
func (r *SQLRepository) FindNotification(ctx context.Context, f model.NotificationFilter) (*model.Notification, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if !f.SentSince.IsZero() {
		add("sent_at >= $%d", f.SentSince.UTC())
	}
	if f.MessageContains != "" {
		add("message LIKE $%d", "%"+f.MessageContains+"%")
	}
	query := `SELECT id, employee_id, type, message, sent_at FROM notifications`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY sent_at, id LIMIT 1"

	n, err := scanNotification(r.DB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

// ListNotifications returns an employee's log, newest first.
func (r *SQLRepository) ListNotifications(ctx context.Context, employeeID int64) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, employee_id, type, message, sent_at FROM notifications WHERE employee_id = $1 ORDER BY sent_at DESC, id DESC`,
		employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	var (
		n       model.Notification
		typ     string
		message sql.NullString
	)
	if err := row.Scan(&n.ID, &n.EmployeeID, &typ, &message, &n.SentAt); err != nil {
		return nil, err
	}
	n.Type = model.NotificationType(typ)
	n.Message = message.String
	n.SentAt = n.SentAt.UTC()
	return &n, nil
}
