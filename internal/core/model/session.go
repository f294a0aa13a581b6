package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Session is one clock-in/clock-out pair in the shift ledger.
// A nil ClockOut means the session is still open.
type Session struct {
	ID                  int64      `json:"id"`
	EmployeeID          int64      `json:"employeeId"`
	ClockIn             time.Time  `json:"clockIn"`
	ClockOut            *time.Time `json:"clockOut,omitempty"`
	WorkDurationMinutes *int64     `json:"workDurationMinutes,omitempty"`
	IPAddress           *string    `json:"ipAddress,omitempty"`
	GPSLat              *float64   `json:"gpsLat,omitempty"`
	GPSLng              *float64   `json:"gpsLng,omitempty"`
	AdjustedBy          *int64     `json:"adjustedBy,omitempty"`
	AdjustmentNote      *string    `json:"adjustmentNote,omitempty"`
}

func (s *Session) IsOpen() bool {
	return s.ClockOut == nil
}

// CalculateDuration recomputes WorkDurationMinutes from the two timestamps:
// whole elapsed minutes, floored, never negative. Open sessions have no duration.
func (s *Session) CalculateDuration() {
	if s.ClockOut == nil {
		s.WorkDurationMinutes = nil
		return
	}
	minutes := WholeMinutes(s.ClockIn, *s.ClockOut)
	s.WorkDurationMinutes = &minutes
}

// WholeMinutes returns floor((to - from) / 1m), clamped at zero.
func WholeMinutes(from, to time.Time) int64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Minute)
}

// DurationHours is the duration in hours rounded to 2 places; ok is false while open.
func (s *Session) DurationHours() (hours decimal.Decimal, ok bool) {
	if s.WorkDurationMinutes == nil {
		return decimal.Zero, false
	}
	return MinutesToHours(*s.WorkDurationMinutes), true
}

// FormattedDuration renders the duration as "Xh Ym".
func (s *Session) FormattedDuration() string {
	if s.WorkDurationMinutes == nil {
		return "In progress"
	}
	m := *s.WorkDurationMinutes
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}

// ClockContext is the optional kiosk context captured on clock-in.
type ClockContext struct {
	IPAddress *string
	GPSLat    *float64
	GPSLng    *float64
}

// SessionFilter narrows ledger queries. Zero values mean "any".
// The time range is half-open: From <= clock_in < To.
type SessionFilter struct {
	EmployeeID int64
	From       time.Time
	To         time.Time
	OnlyClosed bool
}
