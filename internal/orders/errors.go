package orders

import (
	"errors"
	"fmt"
)

// ErrNotFound: a referenced order does not exist. Consumers log and drop.
var ErrNotFound = errors.New("order not found")

// ValidationError rejects malformed input before anything is persisted or
// published.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid order: " + e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
