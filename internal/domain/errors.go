package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("version conflict")
)

// ValidationError names the offending field of a rejected request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StockError is returned when a sale asks for more than is on hand.
type StockError struct {
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d items available, requested %d", e.Available, e.Requested)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }
