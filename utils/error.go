package utils

import (
	"errors"
	"fmt"
)

var (
	ErrorRecordNotFound  = errors.New("record not found")
	ErrUnauthorized      = errors.New("not authenticated")
	ErrForbidden         = errors.New("access denied")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBusy              = errors.New("resource is busy, try again")
)

// ValidationError is a client error (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
