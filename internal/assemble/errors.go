package assemble

import (
	"fmt"
	"strings"

	"github.com/jonathan/dstplot/internal/dst"
)

// RangeUnavailableError reports months inside the requested range that could
// not be obtained at all. A partial series is never returned in its place: a
// truncated plot could be mistaken for genuine data absence.
type RangeUnavailableError struct {
	Range  dst.DateRange
	Months []dst.MonthKey
	Cause  error
}

func (e *RangeUnavailableError) Error() string {
	names := make([]string, len(e.Months))
	for i, m := range e.Months {
		names[i] = m.String()
	}
	msg := fmt.Sprintf("no data available for %s within requested range %s",
		strings.Join(names, ", "), e.Range)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RangeUnavailableError) Unwrap() error {
	return e.Cause
}
