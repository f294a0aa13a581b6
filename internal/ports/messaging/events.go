package messaging

import (
	"time"

	"github.com/google/uuid"
)

// EmailKind tells the email worker which template produced the event.
type EmailKind string

const (
	EmailClockNotification EmailKind = "clock_notification"
)

// EmailEvent is the JSON payload sent via SQS for the email queue.
// It carries the fully rendered message so the worker needs no database access.
type EmailEvent struct {
	EventID    string    `json:"eventId"`
	Kind       EmailKind `json:"kind"`
	EmployeeID int64     `json:"employeeId"`
	To         []string  `json:"to"`
	Subject    string    `json:"subject"`
	Text       string    `json:"text"`
	HTML       string    `json:"html,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewEmailEvent stamps a fresh event id.
func NewEmailEvent(kind EmailKind, employeeID int64, email Email, occurredAt time.Time) EmailEvent {
	return EmailEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		EmployeeID: employeeID,
		To:         email.To,
		Subject:    email.Subject,
		Text:       email.Text,
		HTML:       email.HTML,
		OccurredAt: occurredAt.UTC(),
	}
}

// Email rebuilds the outgoing message from the event.
func (e EmailEvent) Email() Email {
	return Email{To: e.To, Subject: e.Subject, Text: e.Text, HTML: e.HTML}
}
