package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	"workclock.service/internal/core/model"
	"workclock.service/internal/ports/messaging"
	"workclock.service/internal/ports/repository"
	"workclock.service/pkg/telemetry"
	"workclock.service/pkg/workerpool"
)

const notificationTimeLayout = "2006-01-02 15:04:05 UTC"

// NotificationService tells managers about clock events. Delivery runs on a
// background pool and goes through the email queue; nothing it does can fail
// the ledger change that triggered it.
type NotificationService struct {
	repo          repository.Repository
	publisher     messaging.EmailPublisher
	pool          *workerpool.WorkerPool
	fallbackEmail string
}

var _ ClockNotifier = (*NotificationService)(nil)

// NewNotificationService wires the notification sink. fallbackEmail is used
// when no active manager has an address.
func NewNotificationService(repo repository.Repository, publisher messaging.EmailPublisher, pool *workerpool.WorkerPool, fallbackEmail string) *NotificationService {
	return &NotificationService{
		repo:          repo,
		publisher:     publisher,
		pool:          pool,
		fallbackEmail: fallbackEmail,
	}
}

// ManagerEmails returns the addresses of all active managers, or the fallback.
func (s *NotificationService) ManagerEmails(ctx context.Context) ([]string, error) {
	managers, err := s.repo.ListActiveManagers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}

	var emails []string
	for _, m := range managers {
		if m.Email != "" {
			emails = append(emails, m.Email)
		}
	}
	if len(emails) == 0 && s.fallbackEmail != "" {
		emails = []string{s.fallbackEmail}
	}
	return emails, nil
}

// NotifyClock queues delivery and returns immediately. A full queue drops the
// notification with a log line.
func (s *NotificationService) NotifyClock(ctx context.Context, e model.Employee, action model.Action, session model.Session) {
	// Detach from the request so delivery survives the response being written.
	bg := telemetry.WithEmployeeID(context.WithoutCancel(ctx), e.ID)
	l := log.Ctx(ctx).With().Int64("employee_id", e.ID).Str("action", string(action)).Logger()
	bg = l.WithContext(bg)

	err := s.pool.TrySubmit(workerpool.Task{Fn: func() (any, error) {
		if err := s.DeliverClock(bg, e, action, session); err != nil {
			l.Error().Err(err).Msg("Clock notification failed")
		}
		return nil, nil
	}})
	if err != nil {
		l.Warn().Err(err).Msg("Clock notification dropped")
	}
}

// DeliverClock queues the manager email and records the notification log entry.
// Both steps are attempted even if the first one fails.
func (s *NotificationService) DeliverClock(ctx context.Context, e model.Employee, action model.Action, session model.Session) error {
	recipients, err := s.ManagerEmails(ctx)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		log.Ctx(ctx).Warn().Msg("No manager emails configured for notifications")
		return nil
	}

	at := session.ClockIn
	notificationType := model.NotificationClockIn
	if action == model.ActionClockOut && session.ClockOut != nil {
		at = *session.ClockOut
		notificationType = model.NotificationClockOut
	}

	email := renderClockEmail(e, action, session, recipients)
	event := messaging.NewEmailEvent(messaging.EmailClockNotification, e.ID, email, at)
	publishErr := s.publisher.PublishEmail(ctx, event)
	if publishErr != nil {
		publishErr = fmt.Errorf("publish clock email: %w", publishErr)
	} else {
		log.Ctx(ctx).Debug().Str("event_id", event.EventID).Strs("to", recipients).Msg("Clock email queued")
	}

	logErr := s.repo.AppendNotification(ctx, &model.Notification{
		EmployeeID: e.ID,
		Type:       notificationType,
		Message:    fmt.Sprintf("%s at %s", action.Label(), at.UTC().Format(notificationTimeLayout)),
		SentAt:     at,
	})
	if logErr != nil {
		logErr = fmt.Errorf("log notification: %w", logErr)
	}
	return errors.Join(publishErr, logErr)
}

func renderClockEmail(e model.Employee, action model.Action, session model.Session, to []string) messaging.Email {
	label := action.Label()
	at := session.ClockIn
	if action == model.ActionClockOut && session.ClockOut != nil {
		at = *session.ClockOut
	}
	stamp := at.UTC().Format(notificationTimeLayout)
	withDuration := action == model.ActionClockOut && session.WorkDurationMinutes != nil && *session.WorkDurationMinutes > 0

	var text strings.Builder
	text.WriteString("WorkClock Attendance Notification\n")
	text.WriteString("----------------------------------\n\n")
	fmt.Fprintf(&text, "Employee: %s\nAction: %s\nTime: %s\n", e.Name, label, stamp)
	if withDuration {
		fmt.Fprintf(&text, "Duration: %s\n", session.FormattedDuration())
	}
	if session.IPAddress != nil && *session.IPAddress != "" {
		fmt.Fprintf(&text, "IP Address: %s\n", *session.IPAddress)
	}

	color := "#2563eb"
	if action == model.ActionClockIn {
		color = "#059669"
	}
	var body strings.Builder
	fmt.Fprintf(&body, `<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 20px;">`)
	fmt.Fprintf(&body, `<h2 style="color: %s;">%s</h2><table style="width: 100%%; border-collapse: collapse;">`, color, label)
	fmt.Fprintf(&body, `<tr><td style="padding: 8px; font-weight: bold;">Employee</td><td style="padding: 8px;">%s</td></tr>`, html.EscapeString(e.Name))
	fmt.Fprintf(&body, `<tr><td style="padding: 8px; font-weight: bold;">Time</td><td style="padding: 8px;">%s</td></tr>`, stamp)
	if withDuration {
		fmt.Fprintf(&body, `<tr><td style="padding: 8px; font-weight: bold;">Duration</td><td style="padding: 8px;">%s</td></tr>`, session.FormattedDuration())
	}
	body.WriteString(`</table><p style="color: #6b7280; font-size: 12px; margin-top: 20px;">WorkClock Attendance System</p></div>`)

	return messaging.Email{
		To:      to,
		Subject: fmt.Sprintf("[WorkClock] %s — %s", e.Name, label),
		Text:    text.String(),
		HTML:    body.String(),
	}
}
