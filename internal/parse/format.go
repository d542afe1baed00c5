package parse

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/dstplot/internal/dst"
)

// FormatMonth re-serializes one month of hourly samples to the publisher's
// fixed-width table layout, re-encoding missing hours as the sentinel.
// Parsing the result yields the original samples. samples must cover the
// month exactly, in chronological order.
func FormatMonth(month dst.MonthKey, samples []dst.Sample) (string, error) {
	want := month.Days() * hoursPerDay
	if len(samples) != want {
		return "", fmt.Errorf("month %s needs %d samples, got %d", month, want, len(samples))
	}

	var b strings.Builder
	variant := samples[0].Variant
	fmt.Fprintf(&b, "HOURLY EQUATORIAL DST VALUES (%s)\n\n", strings.ToUpper(string(variant)))
	fmt.Fprintf(&b, "%s %d\n\n", strings.ToUpper(month.Month.String()), month.Year)
	b.WriteString("DAY\n")

	for day := 1; day <= month.Days(); day++ {
		row := samples[(day-1)*hoursPerDay : day*hoursPerDay]
		fmt.Fprintf(&b, "%2d ", day)

		sum, n := 0, 0
		for h := 1; h <= hoursPerDay; h++ {
			v := sentinel
			if !row[h-1].Missing {
				v = row[h-1].Value
				sum += v
				n++
			}
			fmt.Fprintf(&b, "%4d", v)
			if h == 8 || h == 16 {
				b.WriteByte(' ')
			}
		}

		mean := sentinel
		if n > 0 {
			mean = int(math.Round(float64(sum) / float64(n)))
		}
		fmt.Fprintf(&b, " %4d\n", mean)
	}

	return b.String(), nil
}
