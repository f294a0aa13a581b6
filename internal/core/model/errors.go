package model

import "errors"

// Error taxonomy surfaced synchronously by the core services.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotFound          = errors.New("not found")
	ErrInvalidRange      = errors.New("clock out must be after clock in")
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrKioskOccupied means the single open-session slot was taken by a
	// concurrent clock-in. The attendance service turns it into an approval outcome.
	ErrKioskOccupied = errors.New("another session is already open")
)
