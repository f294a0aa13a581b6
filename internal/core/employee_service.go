package core

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"workclock.service/internal/core/model"
	"workclock.service/internal/ports/repository"
	"workclock.service/pkg/password"
)

const (
	minNameLength  = 2
	maxNameLength  = 100
	maxEmailLength = 120
)

// EmployeeInput carries the editable employee fields. On update an empty PIN
// or Password keeps the stored credential.
type EmployeeInput struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	PIN        string          `json:"pin"`
	Password   string          `json:"password"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Role       model.Role      `json:"role"`
	IsActive   *bool           `json:"isActive"`
}

// EmployeeService is the manager-facing employee management.
type EmployeeService struct {
	repo     repository.EmployeeRepository
	identity *IdentityService
	clock    Clock
}

func NewEmployeeService(repo repository.EmployeeRepository, identity *IdentityService) *EmployeeService {
	return &EmployeeService{repo: repo, identity: identity}
}

// SetClock replaces the time source.
func (s *EmployeeService) SetClock(c Clock) {
	s.clock = c
}

func validateEmployeeFields(in *EmployeeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if n := utf8.RuneCountInString(in.Name); n < minNameLength || n > maxNameLength {
		return fmt.Errorf("%w: name must be %d-%d characters", model.ErrInvalidInput, minNameLength, maxNameLength)
	}
	if len(in.Email) > maxEmailLength {
		return fmt.Errorf("%w: email must be at most %d characters", model.ErrInvalidInput, maxEmailLength)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: invalid email address", model.ErrInvalidInput)
	}
	if in.HourlyRate.IsNegative() {
		return fmt.Errorf("%w: hourly rate must not be negative", model.ErrInvalidInput)
	}
	return nil
}

// ensureUnique rejects an email or PIN already used by someone other than selfID.
func (s *EmployeeService) ensureUnique(ctx context.Context, email, pin string, selfID int64) error {
	byEmail, err := s.repo.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != selfID {
		return fmt.Errorf("%w: email %s is already registered", model.ErrDuplicateIdentity, email)
	}

	if pin == "" {
		return nil
	}
	holder, err := s.identity.PINHolder(ctx, pin, selfID)
	if err != nil {
		return err
	}
	if holder != nil {
		return fmt.Errorf("%w: PIN is already in use", model.ErrDuplicateIdentity)
	}
	return nil
}

// Create registers a new employee. Managers also need a password.
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (*model.Employee, error) {
	if in.Role == "" {
		in.Role = model.RoleEmployee
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, in.Role)
	}
	if err := validateEmployeeFields(&in); err != nil {
		return nil, err
	}
	if !password.ValidPIN(in.PIN) {
		return nil, fmt.Errorf("%w: PIN must be exactly 4 digits", model.ErrInvalidInput)
	}
	if in.Role == model.RoleManager && !password.ValidatePassword(in.Password) {
		return nil, fmt.Errorf("%w: manager password must be at least %d characters", model.ErrInvalidInput, password.MinPasswordLength)
	}
	if err := s.ensureUnique(ctx, in.Email, in.PIN, 0); err != nil {
		return nil, err
	}

	pinHash, err := password.Hash(in.PIN)
	if err != nil {
		return nil, err
	}
	e := &model.Employee{
		Name:       in.Name,
		Email:      in.Email,
		PINHash:    pinHash,
		Role:       in.Role,
		HourlyRate: in.HourlyRate.Round(2),
		IsActive:   in.IsActive == nil || *in.IsActive,
		CreatedAt:  s.clock.now(),
	}
	if in.Password != "" {
		if e.PasswordHash, err = password.Hash(in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Int64("employee_id", e.ID).Str("role", string(e.Role)).Msg("Employee created")
	return e, nil
}

// Get returns a non-manager employee.
func (s *EmployeeService) Get(ctx context.Context, id int64) (*model.Employee, error) {
	e, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.IsManager() {
		return nil, fmt.Errorf("%w: employee %d", model.ErrNotFound, id)
	}
	return e, nil
}

// Update edits a non-manager employee. The role cannot be changed here.
func (s *EmployeeService) Update(ctx context.Context, id int64, in EmployeeInput) (*model.Employee, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateEmployeeFields(&in); err != nil {
		return nil, err
	}
	if in.PIN != "" && !password.ValidPIN(in.PIN) {
		return nil, fmt.Errorf("%w: PIN must be exactly 4 digits", model.ErrInvalidInput)
	}
	active := e.IsActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if err := s.ensureUnique(ctx, in.Email, in.PIN, e.ID); err != nil {
		return nil, err
	}

	e.Name = in.Name
	e.Email = in.Email
	e.HourlyRate = in.HourlyRate.Round(2)
	e.IsActive = active
	if in.PIN != "" {
		if e.PINHash, err = password.Hash(in.PIN); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateEmployee(ctx, e); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Int64("employee_id", e.ID).Msg("Employee updated")
	return e, nil
}

// SetActive deactivates or reactivates a non-manager employee. Deactivated
// employees drop out of PIN lookup and payroll but keep their history.
func (s *EmployeeService) SetActive(ctx context.Context, id int64, active bool) (*model.Employee, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.IsActive == active {
		return e, nil
	}
	e.IsActive = active
	if err := s.repo.UpdateEmployee(ctx, e); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Int64("employee_id", e.ID).Bool("active", active).Msg("Employee activation changed")
	return e, nil
}

// Delete removes a non-manager employee with all sessions and notifications.
func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	log.Ctx(ctx).Warn().Int64("employee_id", id).Msg("Employee deleted with all attendance history")
	return nil
}

// List returns non-manager employees ordered by name.
func (s *EmployeeService) List(ctx context.Context, includeInactive bool) ([]model.Employee, error) {
	return s.repo.ListStaff(ctx, includeInactive)
}
