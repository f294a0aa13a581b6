package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"workclock.service/internal/core/model"
)

type attendanceFixture struct {
	repo     *memRepo
	notifier *recordingNotifier
	clock    *fixedClock
	svc      *AttendanceService
}

func newAttendanceFixture() *attendanceFixture {
	repo := newMemRepo()
	notifier := &recordingNotifier{}
	clock := &fixedClock{t: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	svc := NewAttendanceService(repo, NewIdentityService(repo), notifier)
	svc.SetClock(clock.Now)
	return &attendanceFixture{repo: repo, notifier: notifier, clock: clock, svc: svc}
}

func TestScenarioClockInThenOut(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	alice := f.repo.addEmployee(t, "Alice", "1234", model.RoleEmployee, "20")

	in, err := f.svc.ProcessPIN(ctx, "1234", model.ClockContext{})
	require.NoError(t, err)
	assert.Equal(t, model.ActionClockIn, in.Action)
	assert.Equal(t, alice.ID, in.Employee.ID)
	require.NotNil(t, in.Session)
	assert.True(t, in.Session.IsOpen())
	assert.Equal(t, f.clock.t, in.Session.ClockIn)

	f.clock.Advance(185*time.Minute + 30*time.Second)

	out, err := f.svc.ProcessPIN(ctx, "1234", model.ClockContext{})
	require.NoError(t, err)
	assert.Equal(t, model.ActionClockOut, out.Action)
	assert.Equal(t, in.Session.ID, out.Session.ID)
	require.NotNil(t, out.Session.WorkDurationMinutes)
	assert.Equal(t, int64(185), *out.Session.WorkDurationMinutes)

	stored, err := f.repo.GetSession(ctx, in.Session.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOpen())

	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, model.ActionClockIn, f.notifier.calls[0].action)
	assert.Equal(t, model.ActionClockOut, f.notifier.calls[1].action)
}

func TestRepeatedSubmissionsToggle(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	f.repo.addEmployee(t, "Alice", "1234", model.RoleEmployee, "20")

	want := []model.Action{model.ActionClockIn, model.ActionClockOut, model.ActionClockIn, model.ActionClockOut}
	for i, action := range want {
		out, err := f.svc.ProcessPIN(ctx, "1234", model.ClockContext{})
		require.NoError(t, err)
		assert.Equal(t, action, out.Action, "submission %d", i)
		assert.LessOrEqual(t, f.repo.openCount(), 1)
		f.clock.Advance(time.Minute)
	}
}

func TestScenarioConflictRequiresApproval(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	x := f.repo.addEmployee(t, "Xavier", "1111", model.RoleEmployee, "20")
	y := f.repo.addEmployee(t, "Yvonne", "5678", model.RoleEmployee, "20")

	first, err := f.svc.ProcessPIN(ctx, "1111", model.ClockContext{})
	require.NoError(t, err)

	out, err := f.svc.ProcessPIN(ctx, "5678", model.ClockContext{})
	require.NoError(t, err)
	assert.Equal(t, model.ActionApprovalRequired, out.Action)
	assert.Equal(t, y.ID, out.Employee.ID)
	require.NotNil(t, out.ConflictingSession)
	assert.Equal(t, first.Session.ID, out.ConflictingSession.ID)
	assert.Equal(t, x.ID, out.ConflictingEmployee.ID)
	assert.Nil(t, out.Session)

	assert.Equal(t, 1, f.repo.openCount())
	open, _ := f.repo.FindOpenSessionForEmployee(ctx, y.ID)
	assert.Nil(t, open)
	assert.Len(t, f.notifier.calls, 1, "approval outcome must not notify")
}

func TestClockInCapturesContext(t *testing.T) {
	f := newAttendanceFixture()
	f.repo.addEmployee(t, "Alice", "1234", model.RoleEmployee, "20")

	ip, lat, lng := "10.0.0.7", 52.52, 13.405
	out, err := f.svc.ProcessPIN(context.Background(), "1234", model.ClockContext{IPAddress: &ip, GPSLat: &lat, GPSLng: &lng})
	require.NoError(t, err)
	require.NotNil(t, out.Session.IPAddress)
	assert.Equal(t, ip, *out.Session.IPAddress)
	assert.Equal(t, lat, *out.Session.GPSLat)
	assert.Equal(t, lng, *out.Session.GPSLng)
}

func TestLostRaceBecomesApproval(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	f.repo.addEmployee(t, "Alice", "1234", model.RoleEmployee, "20")
	bob := f.repo.addEmployee(t, "Bob", "4321", model.RoleEmployee, "20")

	// Bob takes the slot between Alice's check and her insert.
	f.repo.createHook = func() {
		require.NoError(t, f.repo.CreateSession(ctx, &model.Session{EmployeeID: bob.ID, ClockIn: f.clock.t}))
	}

	out, err := f.svc.ProcessPIN(ctx, "1234", model.ClockContext{})
	require.NoError(t, err)
	assert.Equal(t, model.ActionApprovalRequired, out.Action)
	assert.Equal(t, bob.ID, out.ConflictingEmployee.ID)
	assert.Equal(t, 1, f.repo.openCount())
}

func TestProcessPINErrors(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	f.repo.addEmployee(t, "Alice", "1234", model.RoleEmployee, "20")

	for _, bad := range []string{"", "123", "12345", "12a4", " 1234"} {
		_, err := f.svc.ProcessPIN(ctx, bad, model.ClockContext{})
		assert.ErrorIs(t, err, model.ErrInvalidInput, bad)
		assert.ErrorIs(t, err, model.ErrInvalidCredential, bad)
	}

	_, err := f.svc.ProcessPIN(ctx, "9999", model.ClockContext{})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Zero(t, f.repo.openCount())
}

func TestForceClockOut(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	alice := f.repo.addEmployee(t, "Alice", "1234", model.RoleEmployee, "20")
	bob := f.repo.addEmployee(t, "Bob", "4321", model.RoleEmployee, "20")
	boss := f.repo.addEmployee(t, "Boss", "0000", model.RoleManager, "40")

	in, err := f.svc.ProcessPIN(ctx, "1234", model.ClockContext{})
	require.NoError(t, err)

	_, err = f.svc.ForceClockOut(ctx, in.Session.ID, bob)
	assert.ErrorIs(t, err, model.ErrInvalidCredential)

	f.clock.Advance(42 * time.Minute)
	out, err := f.svc.ForceClockOut(ctx, in.Session.ID, boss)
	require.NoError(t, err)
	assert.Equal(t, model.ActionClockOut, out.Action)
	assert.Equal(t, alice.ID, out.Employee.ID)
	assert.Equal(t, int64(42), *out.Session.WorkDurationMinutes)
	assert.Zero(t, f.repo.openCount())

	_, err = f.svc.ForceClockOut(ctx, in.Session.ID, alice)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.ForceClockOut(ctx, 999, alice)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Kiosk is free again.
	next, err := f.svc.ProcessPIN(ctx, "4321", model.ClockContext{})
	require.NoError(t, err)
	assert.Equal(t, model.ActionClockIn, next.Action)
}

func TestApproveDualShiftOnlyAnnotates(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	x := f.repo.addEmployee(t, "Xavier", "1111", model.RoleEmployee, "20")
	y := f.repo.addEmployee(t, "Yvonne", "5678", model.RoleEmployee, "20")

	in, err := f.svc.ProcessPIN(ctx, "1111", model.ClockContext{})
	require.NoError(t, err)

	_, err = f.svc.ApproveDualShift(ctx, x.ID, "9999", "covering")
	assert.ErrorIs(t, err, model.ErrInvalidCredential)

	s, err := f.svc.ApproveDualShift(ctx, x.ID, "1111", "covering the late shift")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, in.Session.ID, s.ID)

	stored, err := f.repo.GetSession(ctx, in.Session.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen(), "approval must not close the session")
	assert.Equal(t, "Approved dual shift: covering the late shift", *stored.AdjustmentNote)
	assert.Equal(t, x.ID, *stored.AdjustedBy)

	open, _ := f.repo.FindOpenSessionForEmployee(ctx, y.ID)
	assert.Nil(t, open, "approval must not clock in the blocked employee")

	none, err := f.svc.ApproveDualShift(ctx, y.ID, "5678", "nothing open")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestManagerApproveSession(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	x := f.repo.addEmployee(t, "Xavier", "1111", model.RoleEmployee, "20")
	boss := f.repo.addEmployee(t, "Boss", "0000", model.RoleManager, "40")

	in, err := f.svc.ProcessPIN(ctx, "1111", model.ClockContext{})
	require.NoError(t, err)

	_, err = f.svc.ManagerApproveSession(ctx, x.ID, in.Session.ID, "self")
	assert.ErrorIs(t, err, model.ErrInvalidCredential)

	s, err := f.svc.ManagerApproveSession(ctx, boss.ID, in.Session.ID, "short staffed")
	require.NoError(t, err)
	assert.Equal(t, "Manager approved dual shift: short staffed", *s.AdjustmentNote)
	assert.Equal(t, boss.ID, *s.AdjustedBy)

	closed := f.repo.addClosedSession(x.ID, f.clock.t.Add(-48*time.Hour), 60)
	_, err = f.svc.ManagerApproveSession(ctx, boss.ID, closed.ID, "too late")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAdjustSession(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	x := f.repo.addEmployee(t, "Xavier", "1111", model.RoleEmployee, "20")
	boss := f.repo.addEmployee(t, "Boss", "0000", model.RoleManager, "40")
	s := f.repo.addClosedSession(x.ID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 60)

	newIn := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	newOut := time.Date(2024, 3, 1, 17, 15, 59, 0, time.UTC)
	got, err := f.svc.AdjustSession(ctx, boss.ID, s.ID, newIn, newOut, "Forgot to clock in")
	require.NoError(t, err)
	assert.Equal(t, int64(525), *got.WorkDurationMinutes)

	stored, err := f.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, newIn, stored.ClockIn)
	assert.Equal(t, newOut, *stored.ClockOut)
	assert.Equal(t, int64(525), *stored.WorkDurationMinutes)
	assert.Equal(t, boss.ID, *stored.AdjustedBy)
	assert.Equal(t, "Forgot to clock in", *stored.AdjustmentNote)
}

func TestAdjustSessionOpenSessionGetsClosed(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	f.repo.addEmployee(t, "Xavier", "1111", model.RoleEmployee, "20")
	boss := f.repo.addEmployee(t, "Boss", "0000", model.RoleManager, "40")

	in, err := f.svc.ProcessPIN(ctx, "1111", model.ClockContext{})
	require.NoError(t, err)

	_, err = f.svc.AdjustSession(ctx, boss.ID, in.Session.ID, in.Session.ClockIn, in.Session.ClockIn.Add(time.Hour), "Left without clocking out")
	require.NoError(t, err)
	assert.Zero(t, f.repo.openCount())
}

func TestScenarioAdjustInvalidRangeLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	x := f.repo.addEmployee(t, "Xavier", "1111", model.RoleEmployee, "20")
	boss := f.repo.addEmployee(t, "Boss", "0000", model.RoleManager, "40")
	s := f.repo.addClosedSession(x.ID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 60)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, out := range []time.Time{at, at.Add(-time.Minute)} {
		_, err := f.svc.AdjustSession(ctx, boss.ID, s.ID, at, out, "Fixing a mistake")
		assert.ErrorIs(t, err, model.ErrInvalidRange)
	}

	stored, err := f.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, *s, *stored)
}

func TestAdjustSessionValidation(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	x := f.repo.addEmployee(t, "Xavier", "1111", model.RoleEmployee, "20")
	boss := f.repo.addEmployee(t, "Boss", "0000", model.RoleManager, "40")
	s := f.repo.addClosedSession(x.ID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 60)
	in, out := s.ClockIn, s.ClockIn.Add(time.Hour)

	_, err := f.svc.AdjustSession(ctx, boss.ID, s.ID, in, out, "shrt")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.svc.AdjustSession(ctx, boss.ID, s.ID, in, out, string(long))
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.svc.AdjustSession(ctx, x.ID, s.ID, in, out, "Not a manager")
	assert.ErrorIs(t, err, model.ErrInvalidCredential)

	_, err = f.svc.AdjustSession(ctx, boss.ID, 999, in, out, "Missing session")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestActiveShiftAndCount(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	alice := f.repo.addEmployee(t, "Alice", "1234", model.RoleEmployee, "20")

	s, err := f.svc.ActiveShift(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = f.svc.ProcessPIN(ctx, "1234", model.ClockContext{})
	require.NoError(t, err)

	s, err = f.svc.ActiveShift(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, s)
	n, err := f.svc.ActiveEmployeesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
