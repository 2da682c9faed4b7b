package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrLockHeld means another request holds the slot lock right now.
	ErrLockHeld = errors.New("slot lock is held by another request")

	// ErrStatusChanged means a conditional status update matched nothing
	// because the booking left the expected status first.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
