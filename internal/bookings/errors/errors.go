package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDateConflict = errors.New("booking dates conflict with an existing booking")

	ErrInvalidTransition = errors.New("invalid booking status transition")

	ErrInvalidDateRange = errors.New("end date must be after start date")
)
