package handler

import (
	"time"

	"workclock.service/internal/core"
)

// Handler serves the kiosk, login and manager endpoints.
type Handler struct {
	Attendance *core.AttendanceService
	Identity   *core.IdentityService
	Payroll    *core.PayrollService
	Employees  *core.EmployeeService

	JWTSecret string
	TokenTTL  time.Duration

	// Now defaults the dashboard period; nil means time.Now.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}
