package services

import (
	"errors"
	"fmt"
)

// ValidationError is the expected, user-facing failure class. It is
// always raised before any write is issued; a mutation that fails
// validation leaves no trace and emits no event. Anything else returned
// by a service is a system error.
type ValidationError struct {
	msg string
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.msg
}

func IsValidationError(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
