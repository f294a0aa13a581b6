package model

import (
	"time"

	"github.com/shopspring/decimal"
	"workclock.service/pkg/password"
)

// Role separates kiosk employees from dashboard managers.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

type Employee struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PINHash      string          `json:"-"`
	PasswordHash string          `json:"-"`
	Role         Role            `json:"role"`
	HourlyRate   decimal.Decimal `json:"hourlyRate"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (e *Employee) IsManager() bool {
	return e.Role == RoleManager
}

// CheckPIN verifies a raw PIN against the stored hash.
func (e *Employee) CheckPIN(pin string) bool {
	return password.Verify(pin, e.PINHash)
}

// CheckPassword verifies a manager password against the stored hash.
func (e *Employee) CheckPassword(pw string) bool {
	return password.Verify(pw, e.PasswordHash)
}
