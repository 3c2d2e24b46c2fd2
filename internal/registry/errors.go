package registry

import "errors"

var (
	// ErrValidation marks user input that was rejected. The registry is left unchanged.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a command that references a calculator which no longer exists.
	ErrNotFound = errors.New("calculator not found")
	// ErrDuplicateID is returned when creating a calculator with an id already in use.
	ErrDuplicateID = errors.New("calculator id already exists")
	// ErrMissingID is returned when a command does not name a calculator.
	ErrMissingID = errors.New("calculator id is required")
)

const (
	invalidTradeMessage = "Please enter valid positive numbers for Amount and Price."
	outOfRangeMessage   = "The result is too large to calculate. Please check the trade values and the input."
)

// ValidationError carries the message shown to the user for rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
