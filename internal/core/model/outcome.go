package model

// Action is the result of one PIN submission at the kiosk.
type Action string

const (
	ActionClockIn          Action = "clock_in"
	ActionClockOut         Action = "clock_out"
	ActionApprovalRequired Action = "approval_required"
)

// Label is the human form used in notifications.
func (a Action) Label() string {
	switch a {
	case ActionClockIn:
		return "Clocked In"
	case ActionClockOut:
		return "Clocked Out"
	default:
		return "Approval Required"
	}
}

// Outcome of the attendance state machine.
//
// For ActionClockIn and ActionClockOut, Session is the mutated ledger entry.
// For ActionApprovalRequired the ledger is untouched: Employee is the candidate
// and ConflictingSession/ConflictingEmployee describe who holds the kiosk.
type Outcome struct {
	Action              Action    `json:"action"`
	Employee            *Employee `json:"employee"`
	Session             *Session  `json:"session,omitempty"`
	ConflictingSession  *Session  `json:"conflictingSession,omitempty"`
	ConflictingEmployee *Employee `json:"conflictingEmployee,omitempty"`
}
