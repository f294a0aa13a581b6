package repository

import (
	"context"
	"time"

	"workclock.service/internal/core/model"
)

// EmployeeRepository contract
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, e *model.Employee) error
	GetEmployee(ctx context.Context, id int64) (*model.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*model.Employee, error)
	ListActiveEmployees(ctx context.Context) ([]model.Employee, error)
	ListActiveManagers(ctx context.Context) ([]model.Employee, error)
	ListStaff(ctx context.Context, includeInactive bool) ([]model.Employee, error)
	UpdateEmployee(ctx context.Context, e *model.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
}

// SessionRepository contract for the shift ledger
type SessionRepository interface {
	// CreateSession inserts an open session. It fails with model.ErrKioskOccupied
	// when any open session already exists.
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id int64) (*model.Session, error)
	// FindOpenSession returns any open session not owned by excludeEmployeeID (0 = none excluded).
	FindOpenSession(ctx context.Context, excludeEmployeeID int64) (*model.Session, error)
	FindOpenSessionForEmployee(ctx context.Context, employeeID int64) (*model.Session, error)
	// CloseSession sets clock_out only if the session is still open.
	CloseSession(ctx context.Context, id int64, clockOut time.Time, minutes int64) error
	UpdateSession(ctx context.Context, s *model.Session) error
	AnnotateSession(ctx context.Context, id int64, adjustedBy int64, note string) error
	ListSessions(ctx context.Context, f model.SessionFilter) ([]model.Session, error)
	SumWorkedMinutes(ctx context.Context, f model.SessionFilter) (int64, error)
	CountActiveEmployees(ctx context.Context) (int64, error)
}

// NotificationRepository is the append-only notification log
type NotificationRepository interface {
	AppendNotification(ctx context.Context, n *model.Notification) error
	FindNotification(ctx context.Context, f model.NotificationFilter) (*model.Notification, error)
	ListNotifications(ctx context.Context, employeeID int64) ([]model.Notification, error)
}

// Repository is the full store consumed by the core.
type Repository interface {
	EmployeeRepository
	SessionRepository
	NotificationRepository
}
