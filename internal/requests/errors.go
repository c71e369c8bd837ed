package requests

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("request not found")
	ErrForbidden         = errors.New("actor not permitted")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidState      = errors.New("request not in required status")
	ErrConflict          = errors.New("lost update race")
)

// ValidationError reports malformed input by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}
