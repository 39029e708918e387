package job

import (
	"errors"
	"fmt"
)

// InvalidArgumentError represents a missing or invalid constructor argument.
type InvalidArgumentError struct {
	Argument string // Argument name
	Reason   string // Why it was rejected
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Argument, e.Reason)
}

// NewInvalidArgumentError creates a new InvalidArgumentError
func NewInvalidArgumentError(argument, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Argument: argument, Reason: reason}
}

// IsInvalidArgumentError checks if an error is an InvalidArgumentError
func IsInvalidArgumentError(err error) bool {
	var ie *InvalidArgumentError
	return errors.As(err, &ie)
}
