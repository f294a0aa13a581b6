package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"workclock.service/internal/core/model"
	"workclock.service/internal/ports/repository"
)

const (
	// A lost race on the kiosk slot is re-evaluated this many times before giving up.
	maxSlotAttempts = 3

	minNoteLength = 5
	maxNoteLength = 500
)

// ClockNotifier is told about every committed clock-in and clock-out. It must
// not block and its failures never reach the caller.
type ClockNotifier interface {
	NotifyClock(ctx context.Context, employee model.Employee, action model.Action, session model.Session)
}

// AttendanceService turns PIN submissions into shift ledger mutations.
//
// Only one session may be open system-wide. The store enforces this with a
// unique index, so opening a session is the act of taking the kiosk slot.
type AttendanceService struct {
	repo     repository.Repository
	identity *IdentityService
	notifier ClockNotifier
	clock    Clock
}

// NewAttendanceService creates the attendance state machine, wiring up the
// store, the PIN lookup and the clock notification sink.
func NewAttendanceService(repo repository.Repository, identity *IdentityService, notifier ClockNotifier) *AttendanceService {
	return &AttendanceService{
		repo:     repo,
		identity: identity,
		notifier: notifier,
	}
}

// SetClock replaces the time source.
func (s *AttendanceService) SetClock(c Clock) {
	s.clock = c
}

// ProcessPIN is the kiosk entry point: resolve the PIN, then run the transition.
func (s *AttendanceService) ProcessPIN(ctx context.Context, pin string, cc model.ClockContext) (*model.Outcome, error) {
	e, err := s.identity.LookupByPIN(ctx, pin)
	if err != nil {
		return nil, err
	}
	return s.Transition(ctx, e, cc)
}

// Transition decides between clock-in, clock-out and approval for employee e.
func (s *AttendanceService) Transition(ctx context.Context, e *model.Employee, cc model.ClockContext) (*model.Outcome, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.employee_id", e.ID))

	for attempt := 1; attempt <= maxSlotAttempts; attempt++ {
		conflict, err := s.repo.FindOpenSession(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query open sessions: %w", err)
		}
		if conflict != nil {
			return s.approvalRequired(ctx, e, conflict)
		}

		own, err := s.repo.FindOpenSessionForEmployee(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query own session: %w", err)
		}
		if own != nil {
			return s.clockOut(ctx, e, own)
		}

		outcome, err := s.clockIn(ctx, e, cc)
		if errors.Is(err, model.ErrKioskOccupied) {
			log.Ctx(ctx).Info().Int64("employee_id", e.ID).Int("attempt", attempt).Msg("Lost the kiosk slot to a concurrent clock-in, re-evaluating")
			continue
		}
		return outcome, err
	}
	return nil, fmt.Errorf("kiosk slot still contended after %d attempts: %w", maxSlotAttempts, model.ErrKioskOccupied)
}

func (s *AttendanceService) approvalRequired(ctx context.Context, e *model.Employee, conflict *model.Session) (*model.Outcome, error) {
	holder, err := s.repo.GetEmployee(ctx, conflict.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conflicting employee: %w", err)
	}

	log.Ctx(ctx).Info().
		Int64("employee_id", e.ID).
		Int64("conflicting_session_id", conflict.ID).
		Int64("conflicting_employee_id", holder.ID).
		Msg("Clock-in blocked by another open session, approval required")

	return &model.Outcome{
		Action:              model.ActionApprovalRequired,
		Employee:            e,
		ConflictingSession:  conflict,
		ConflictingEmployee: holder,
	}, nil
}

// clockIn handles the clock-in workflow.
func (s *AttendanceService) clockIn(ctx context.Context, e *model.Employee, cc model.ClockContext) (*model.Outcome, error) {
	session := &model.Session{
		EmployeeID: e.ID,
		ClockIn:    s.clock.now(),
		IPAddress:  cc.IPAddress,
		GPSLat:     cc.GPSLat,
		GPSLng:     cc.GPSLng,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		if errors.Is(err, model.ErrKioskOccupied) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Ctx(ctx).Info().Int64("employee_id", e.ID).Int64("session_id", session.ID).Msg("Clocked in")
	s.notify(ctx, e, model.ActionClockIn, session)
	return &model.Outcome{Action: model.ActionClockIn, Employee: e, Session: session}, nil
}

// clockOut handles the clock-out workflow.
func (s *AttendanceService) clockOut(ctx context.Context, e *model.Employee, open *model.Session) (*model.Outcome, error) {
	clockOut := s.clock.now()
	session := *open
	session.ClockOut = &clockOut
	session.CalculateDuration()

	if err := s.repo.CloseSession(ctx, session.ID, clockOut, *session.WorkDurationMinutes); err != nil {
		return nil, fmt.Errorf("failed to close session %d: %w", session.ID, err)
	}

	log.Ctx(ctx).Info().
		Int64("employee_id", e.ID).
		Int64("session_id", session.ID).
		Int64("minutes", *session.WorkDurationMinutes).
		Msg("Clocked out")
	s.notify(ctx, e, model.ActionClockOut, &session)
	return &model.Outcome{Action: model.ActionClockOut, Employee: e, Session: &session}, nil
}

func (s *AttendanceService) notify(ctx context.Context, e *model.Employee, action model.Action, session *model.Session) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyClock(ctx, *e, action, *session)
}

// ForceClockOut closes a specific open session to free the kiosk. actor must
// own the session or be a manager.
func (s *AttendanceService) ForceClockOut(ctx context.Context, sessionID int64, actor *model.Employee) (*model.Outcome, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, fmt.Errorf("%w: no active session %d", model.ErrNotFound, sessionID)
	}
	if actor == nil || (actor.ID != session.EmployeeID && !actor.IsManager()) {
		return nil, fmt.Errorf("%w: only the session owner or a manager may force a clock-out", model.ErrInvalidCredential)
	}

	owner, err := s.repo.GetEmployee(ctx, session.EmployeeID)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("session_id", sessionID).Int64("actor_id", actor.ID).Msg("Forcing clock-out")
	return s.clockOut(ctx, owner, session)
}

// ApproveDualShift is the kiosk self-approval: the approver re-enters their PIN
// and the reason is recorded on their own open session. The blocked clock-in is
// not performed; the other employee retries once the approval is on record.
func (s *AttendanceService) ApproveDualShift(ctx context.Context, approverID int64, pin, reason string) (*model.Session, error) {
	approver, err := s.identity.VerifyEmployeePIN(ctx, approverID, pin)
	if err != nil {
		return nil, err
	}

	open, err := s.repo.FindOpenSessionForEmployee(ctx, approver.ID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		log.Ctx(ctx).Info().Int64("approver_id", approver.ID).Msg("Approver has no open session, nothing to annotate")
		return nil, nil
	}

	return s.annotate(ctx, open, approver.ID, "Approved dual shift: "+strings.TrimSpace(reason))
}

// ManagerApproveSession records a manager's approval on an open session.
func (s *AttendanceService) ManagerApproveSession(ctx context.Context, managerID, sessionID int64, reason string) (*model.Session, error) {
	if _, err := requireManager(ctx, s.repo, managerID); err != nil {
		return nil, err
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, fmt.Errorf("%w: session %d is not active", model.ErrNotFound, sessionID)
	}

	return s.annotate(ctx, session, managerID, "Manager approved dual shift: "+strings.TrimSpace(reason))
}

func (s *AttendanceService) annotate(ctx context.Context, session *model.Session, adjusterID int64, note string) (*model.Session, error) {
	if err := s.repo.AnnotateSession(ctx, session.ID, adjusterID, note); err != nil {
		return nil, fmt.Errorf("failed to annotate session %d: %w", session.ID, err)
	}
	session.AdjustedBy = &adjusterID
	session.AdjustmentNote = &note

	log.Ctx(ctx).Info().Int64("session_id", session.ID).Int64("adjusted_by", adjusterID).Msg("Dual shift approved")
	return session, nil
}

// AdjustSession rewrites both timestamps of a session and records who did it.
// Nothing is written unless clockOut is strictly after clockIn.
func (s *AttendanceService) AdjustSession(ctx context.Context, managerID, sessionID int64, clockIn, clockOut time.Time, note string) (*model.Session, error) {
	note = strings.TrimSpace(note)
	if n := utf8.RuneCountInString(note); n < minNoteLength || n > maxNoteLength {
		return nil, fmt.Errorf("%w: adjustment note must be %d-%d characters", model.ErrInvalidInput, minNoteLength, maxNoteLength)
	}
	clockIn, clockOut = clockIn.UTC(), clockOut.UTC()
	if !clockOut.After(clockIn) {
		return nil, model.ErrInvalidRange
	}
	if _, err := requireManager(ctx, s.repo, managerID); err != nil {
		return nil, err
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.ClockIn = clockIn
	session.ClockOut = &clockOut
	session.AdjustedBy = &managerID
	session.AdjustmentNote = &note
	session.CalculateDuration()

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session %d: %w", sessionID, err)
	}

	log.Ctx(ctx).Info().Int64("session_id", sessionID).Int64("manager_id", managerID).Msg("Session adjusted")
	return session, nil
}

// ActiveShift returns the employee's open session, or nil.
func (s *AttendanceService) ActiveShift(ctx context.Context, employeeID int64) (*model.Session, error) {
	return s.repo.FindOpenSessionForEmployee(ctx, employeeID)
}

// ActiveEmployeesCount is the number of employees currently clocked in.
func (s *AttendanceService) ActiveEmployeesCount(ctx context.Context) (int64, error) {
	return s.repo.CountActiveEmployees(ctx)
}
