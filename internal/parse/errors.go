package parse

import (
	"fmt"

	"github.com/jonathan/dstplot/internal/dst"
)

// Error represents a page whose content did not match the expected layout.
type Error struct {
	Month   dst.MonthKey
	Variant dst.Variant
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error for %s (%s): %s: %v", e.Month, e.Variant, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error for %s (%s): %s", e.Month, e.Variant, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
