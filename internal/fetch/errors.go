package fetch

import (
	"fmt"
	"net/http"

	"github.com/jonathan/dstplot/internal/dst"
)

// Error represents a network failure or non-success response for one
// (month, variant). The caller decides whether the month is simply not
// published under that variant or the failure is transient.
type Error struct {
	Month      dst.MonthKey
	Variant    dst.Variant
	URL        string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s (%s) from %s: %v", e.Month, e.Variant, e.URL, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s (%s) from %s: HTTP status %d", e.Month, e.Variant, e.URL, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NotPublished reports whether the page simply does not exist under this
// variant, which permits falling back to another variant.
func (e *Error) NotPublished() bool {
	return e.StatusCode == http.StatusNotFound
}
