package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"workclock.service/internal/core/model"
	"workclock.service/internal/ports/repository"
	"workclock.service/pkg/password"
)

// IdentityService resolves kiosk PINs and manager credentials to employees.
type IdentityService struct {
	repo repository.EmployeeRepository
}

func NewIdentityService(repo repository.EmployeeRepository) *IdentityService {
	return &IdentityService{repo: repo}
}

// VerifyPIN returns the first employee whose PIN hash matches candidate, or nil.
//
// PINs are stored as bcrypt hashes, so there is no index to look them up by:
// every call costs one hash comparison per employee passed in.
func VerifyPIN(candidate string, employees []model.Employee) *model.Employee {
	for i := range employees {
		if employees[i].CheckPIN(candidate) {
			return &employees[i]
		}
	}
	return nil
}

// LookupByPIN resolves a 4-digit PIN to the active employee holding it.
func (s *IdentityService) LookupByPIN(ctx context.Context, pin string) (*model.Employee, error) {
	if !password.ValidPIN(pin) {
		return nil, fmt.Errorf("%w: %w: PIN must be exactly 4 digits", model.ErrInvalidInput, model.ErrInvalidCredential)
	}

	employees, err := s.repo.ListActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}

	e := VerifyPIN(pin, employees)
	if e == nil {
		log.Ctx(ctx).Debug().Int("scanned", len(employees)).Msg("PIN did not match any active employee")
		return nil, fmt.Errorf("%w: no active employee with this PIN", model.ErrNotFound)
	}
	return e, nil
}

// PINHolder returns the active employee other than excludeID already using pin, or nil.
func (s *IdentityService) PINHolder(ctx context.Context, pin string, excludeID int64) (*model.Employee, error) {
	employees, err := s.repo.ListActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}

	others := employees[:0:0]
	for _, e := range employees {
		if e.ID != excludeID {
			others = append(others, e)
		}
	}
	return VerifyPIN(pin, others), nil
}

// VerifyEmployeePIN checks pin against one specific employee's hash.
func (s *IdentityService) VerifyEmployeePIN(ctx context.Context, employeeID int64, pin string) (*model.Employee, error) {
	e, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidCredential, err)
	}
	if !e.IsActive || !e.CheckPIN(pin) {
		return nil, fmt.Errorf("%w: PIN does not match", model.ErrInvalidCredential)
	}
	return e, nil
}

// AuthenticateManager checks a manager's email and password.
func (s *IdentityService) AuthenticateManager(ctx context.Context, email, pw string) (*model.Employee, error) {
	e, err := s.repo.GetEmployeeByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	if e == nil || !e.IsManager() || !e.IsActive || !e.CheckPassword(pw) {
		return nil, fmt.Errorf("%w: invalid email or password", model.ErrInvalidCredential)
	}
	return e, nil
}

// requireManager loads id and checks it is an active manager.
func requireManager(ctx context.Context, repo repository.EmployeeRepository, id int64) (*model.Employee, error) {
	e, err := repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidCredential, err)
	}
	if !e.IsManager() || !e.IsActive {
		return nil, fmt.Errorf("%w: employee %d is not an active manager", model.ErrInvalidCredential, id)
	}
	return e, nil
}
