// Package dst defines the core types for the hourly Dst (Disturbance Storm
// Time) index: month keys, date ranges, samples and assembled series.
package dst

import (
	"fmt"
	"time"
)

// FirstYear is the earliest year for which the WDC Kyoto archive publishes
// monthly Dst pages.
const FirstYear = 1957

// Variant identifies which edition of a monthly page a value came from.
// The publisher finalizes data years after the fact; recent months are only
// available as provisional or real-time (quicklook) editions.
type Variant string

const (
	Final       Variant = "final"
	Provisional Variant = "provisional"
	Realtime    Variant = "realtime"
)

// MonthKey identifies one fetchable, cacheable monthly page.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the MonthKey containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Code returns the YYYYMM form used in URLs and cache filenames.
func (k MonthKey) Code() string {
	return fmt.Sprintf("%04d%02d", k.Year, int(k.Month))
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Start returns midnight UTC on the first day of the month.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month, accounting for leap years.
func (k MonthKey) Days() int {
	return k.Start().AddDate(0, 1, -1).Day()
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey {
	return MonthOf(k.Start().AddDate(0, 1, 0))
}

// Before reports whether k is strictly earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// After reports whether k is strictly later than other.
func (k MonthKey) After(other MonthKey) bool {
	return other.Before(k)
}

// Sample is one hourly Dst observation in nanoteslas. Missing marks an hour
// the publisher encoded with the all-9s sentinel: the hour exists in the
// series but carries no value, which is distinct from a true zero reading.
type Sample struct {
	Time    time.Time
	Value   int
	Variant Variant
	Missing bool
}

// DateRange is an inclusive interval of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from two civil dates, normalized to midnight
// UTC. Start must not be after End.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := midnight(start)
	e := midnight(end)
	if s.After(e) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s",
			s.Format("2006-01-02"), e.Format("2006-01-02"))
	}
	return DateRange{Start: s, End: e}, nil
}

// ParseDate parses a YYYY-MM-DD civil date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Months returns the distinct months the range touches, in order.
func (r DateRange) Months() []MonthKey {
	var keys []MonthKey
	last := MonthOf(r.End)
	for k := MonthOf(r.Start); !k.After(last); k = k.Next() {
		keys = append(keys, k)
	}
	return keys
}

// FirstHour returns the first hour of the range (start day 00:00 UTC).
func (r DateRange) FirstHour() time.Time {
	return r.Start
}

// LastHour returns the final hour of the range (end day 23:00 UTC).
func (r DateRange) LastHour() time.Time {
	return r.End.Add(23 * time.Hour)
}

// Hours returns the number of hourly slots the range covers.
func (r DateRange) Hours() int {
	return int(r.LastHour().Sub(r.FirstHour())/time.Hour) + 1
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// Series is an assembled hourly sequence covering Range. Every hour in the
// range is present exactly once; hours the publisher marked missing are kept
// as Missing samples so downstream rendering can show a break.
type Series struct {
	Range   DateRange
	Samples []Sample
}

// Gaps returns the timestamps of all missing-observation hours.
func (s Series) Gaps() []time.Time {
	var gaps []time.Time
	for _, sm := range s.Samples {
		if sm.Missing {
			gaps = append(gaps, sm.Time)
		}
	}
	return gaps
}

// Segments splits the series into maximal runs of consecutive non-missing
// samples. Each gap starts a new segment.
func (s Series) Segments() [][]Sample {
	var segs [][]Sample
	var cur []Sample
	for _, sm := range s.Samples {
		if sm.Missing {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, sm)
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

// Min returns the sample with the lowest value, or false if every hour in
// the series is missing.
func (s Series) Min() (Sample, bool) {
	found := false
	var min Sample
	for _, sm := range s.Samples {
		if sm.Missing {
			continue
		}
		if !found || sm.Value < min.Value {
			min = sm
			found = true
		}
	}
	return min, found
}
