package errors

import "errors"

var (
	ErrNotFound = errors.New("service booking not found")

	ErrInvalidID = errors.New("invalid service booking ID format")

	ErrServiceNotFound = errors.New("branch service not found")

	// ErrInsufficientStock means the conditional decrement matched nothing:
	// the service has fewer units on hand than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
)
