package domain

import "fmt"

// ValidationError reports malformed or out-of-range input. It is surfaced to
// the originating connection only and never mutates state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation referencing a room or user that no
// longer exists.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ExecutionError reports a sandboxed run that failed, crashed, or exceeded
// its timeout.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// InternalError wraps an unexpected fault caught at the handler boundary.
// The client only ever sees a generic message.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Cause)
}

func (e *InternalError) Unwrap() error { return e.Cause }
