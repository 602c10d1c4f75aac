package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map them to
// HTTP status codes with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// conflictError is a specific conflict that still matches ErrConflict.
type conflictError string

func (e conflictError) Error() string        { return string(e) }
func (e conflictError) Is(target error) bool { return target == ErrConflict }

var (
	ErrTableTaken      error = conflictError("table is already reserved for that time")
	ErrOutOfStock      error = conflictError("game is out of stock")
	ErrGroupFull       error = conflictError("group has no open seats")
	ErrAlreadyMember   error = conflictError("user is already in this group")
	ErrReservationOver error = conflictError("reservation has already ended")
)

// ValidationError names the input field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
