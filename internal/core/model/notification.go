package model

import "time"

type NotificationType string

const (
	NotificationClockIn        NotificationType = "clock_in"
	NotificationClockOut       NotificationType = "clock_out"
	NotificationMonthlySummary NotificationType = "monthly_summary"
)

// Notification is an append-only record of a sent clock or report event.
type Notification struct {
	ID         int64            `json:"id"`
	EmployeeID int64            `json:"employeeId"`
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	SentAt     time.Time        `json:"sentAt"`
}

// NotificationFilter selects notification log entries. MessageContains is a
// plain substring match on the free-text message.
type NotificationFilter struct {
	Type            NotificationType
	SentSince       time.Time
	MessageContains string
}
