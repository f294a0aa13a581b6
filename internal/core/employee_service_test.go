package core

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"workclock.service/internal/core/model"
)

func validInput() EmployeeInput {
	return EmployeeInput{
		Name:       "Alice Example",
		Email:      "Alice@Example.com",
		PIN:        "1234",
		HourlyRate: decimal.RequireFromString("18.755"),
	}
}

func TestCreateEmployee(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewEmployeeService(repo, NewIdentityService(repo))

	e, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", e.Email)
	assert.Equal(t, model.RoleEmployee, e.Role)
	assert.True(t, e.IsActive)
	assert.Equal(t, "18.76", e.HourlyRate.StringFixed(2))
	assert.True(t, e.CheckPIN("1234"))
	assert.NotEqual(t, "1234", e.PINHash)
}

func TestCreateEmployeeValidation(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewEmployeeService(repo, NewIdentityService(repo))

	cases := map[string]func(*EmployeeInput){
		"short name":       func(in *EmployeeInput) { in.Name = "A" },
		"long name":        func(in *EmployeeInput) { in.Name = strings.Repeat("a", 101) },
		"bad email":        func(in *EmployeeInput) { in.Email = "not-an-email" },
		"long email":       func(in *EmployeeInput) { in.Email = strings.Repeat("a", 110) + "@example.com" },
		"short pin":        func(in *EmployeeInput) { in.PIN = "123" },
		"letters in pin":   func(in *EmployeeInput) { in.PIN = "12ab" },
		"negative rate":    func(in *EmployeeInput) { in.HourlyRate = decimal.NewFromInt(-1) },
		"unknown role":     func(in *EmployeeInput) { in.Role = "owner" },
		"manager password": func(in *EmployeeInput) { in.Role = model.RoleManager; in.Password = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}
}

func TestCreateEmployeeDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewEmployeeService(repo, NewIdentityService(repo))
	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	sameEmail := validInput()
	sameEmail.PIN = "9999"
	_, err = svc.Create(ctx, sameEmail)
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	samePIN := validInput()
	samePIN.Email = "other@example.com"
	_, err = svc.Create(ctx, samePIN)
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)
}

func TestCreateManagerNeedsPassword(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	identity := NewIdentityService(repo)
	svc := NewEmployeeService(repo, identity)

	in := validInput()
	in.Role = model.RoleManager
	in.Password = "long-enough"
	m, err := svc.Create(ctx, in)
	require.NoError(t, err)

	got, err := identity.AuthenticateManager(ctx, "alice@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	// Managers are not reachable through employee management.
	_, err = svc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, m.ID), model.ErrNotFound)
}

func TestUpdateEmployee(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewEmployeeService(repo, NewIdentityService(repo))

	alice, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	other := validInput()
	other.Email, other.PIN, other.Name = "bob@example.com", "4321", "Bob"
	bob, err := svc.Create(ctx, other)
	require.NoError(t, err)

	// Keeping its own email and PIN is fine.
	in := validInput()
	in.PIN = ""
	in.HourlyRate = decimal.NewFromInt(25)
	updated, err := svc.Update(ctx, alice.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.HourlyRate.Equal(decimal.NewFromInt(25)))
	assert.True(t, updated.CheckPIN("1234"))

	in.PIN = "1234"
	_, err = svc.Update(ctx, alice.ID, in)
	assert.NoError(t, err)

	in.PIN = "4321"
	_, err = svc.Update(ctx, alice.ID, in)
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	in.PIN = ""
	in.Email = "bob@example.com"
	_, err = svc.Update(ctx, alice.ID, in)
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	updated, err = svc.Update(ctx, bob.ID, EmployeeInput{Name: "Bobby", Email: "bob@example.com", PIN: "7777"})
	require.NoError(t, err)
	assert.Equal(t, "Bobby", updated.Name)
	assert.True(t, updated.CheckPIN("7777"))
}

func TestDeactivateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewEmployeeService(repo, NewIdentityService(repo))

	alice, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	repo.addClosedSession(alice.ID, repo.employees[alice.ID].CreatedAt, 30)

	e, err := svc.SetActive(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.False(t, e.IsActive)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	e, err = svc.SetActive(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.True(t, e.IsActive)

	require.NoError(t, svc.Delete(ctx, alice.ID))
	sessions, err := repo.ListSessions(ctx, model.SessionFilter{EmployeeID: alice.ID})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	_, err = svc.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
