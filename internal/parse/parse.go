// Package parse extracts hourly Dst samples from the monthly pages published
// by the WDC for Geomagnetism, Kyoto. Pages mix HTML markup with an embedded
// fixed-width table (one line per day, 24 hourly values plus a daily mean);
// some early-history mirrors serve the bare table without HTML wrapping.
package parse

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/dstplot/internal/dst"
)

// sentinel is the publisher's missing-observation marker: a 4-character
// hourly field of all nines. It decodes to "no sample", never to a value.
const sentinel = 9999

// hoursPerDay hourly fields per data line.
const hoursPerDay = 24

// lineLayout describes the fixed-column arithmetic of one page era. The
// archive has used a single convention since 1957: a 2-digit day, then three
// groups of eight 4-character hourly fields separated by single spaces, then
// the daily mean. layoutFor is the seam for any future divergent era.
type lineLayout struct {
	dayWidth   int
	fieldWidth int
}

var wdcLayout = lineLayout{dayWidth: 2, fieldWidth: 4}

func layoutFor(_ dst.MonthKey) lineLayout {
	return wdcLayout
}

// fieldStart returns the column at which the field for hour h (1..24) begins.
func (l lineLayout) fieldStart(h int) int {
	switch {
	case h <= 8:
		return h*l.fieldWidth - 1
	case h <= 16:
		return h * l.fieldWidth
	default:
		return h*l.fieldWidth + 1
	}
}

// lineWidth is the minimum length of a data line (through the hour-24 field,
// excluding the daily mean).
func (l lineLayout) lineWidth() int {
	return l.fieldStart(hoursPerDay) + l.fieldWidth
}

// Parse extracts the ordered hourly samples for one month. Hourly fields are
// timestamped at the start of the hour they cover, so a month page spans
// exactly day 1 00:00 UTC through the last day 23:00 UTC. The returned
// samples are strictly increasing and contiguous; sentinel hours are present
// with Missing set.
func Parse(raw []byte, month dst.MonthKey, variant dst.Variant) ([]dst.Sample, error) {
	table, err := extractTable(raw, month, variant)
	if err != nil {
		return nil, err
	}

	layout := layoutFor(month)
	start := month.Start()

	var samples []dst.Sample
	day := 0
	inData := false

	scanner := bufio.NewScanner(strings.NewReader(table))
	for scanner.Scan() {
		line := scanner.Text()
		if !inData {
			if strings.TrimSpace(line) == "DAY" {
				inData = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		day++
		got, err := parseDay(line, layout)
		if err != nil {
			return nil, &Error{
				Month:   month,
				Variant: variant,
				Message: fmt.Sprintf("day %d", day),
				Cause:   err,
			}
		}
		if got.day != day {
			return nil, &Error{
				Month:   month,
				Variant: variant,
				Message: fmt.Sprintf("data line %d is labeled day %d", day, got.day),
			}
		}

		base := start.AddDate(0, 0, day-1)
		for h := 1; h <= hoursPerDay; h++ {
			s := dst.Sample{
				Time:    base.Add(time.Duration(h-1) * time.Hour),
				Variant: variant,
			}
			if got.values[h-1] == sentinel {
				s.Missing = true
			} else {
				s.Value = got.values[h-1]
			}
			samples = append(samples, s)
		}
	}

	if !inData {
		return nil, &Error{
			Month:   month,
			Variant: variant,
			Message: "no DAY header marking the data section",
		}
	}
	if day != month.Days() {
		return nil, &Error{
			Month:   month,
			Variant: variant,
			Message: fmt.Sprintf("got %d data lines, month has %d days", day, month.Days()),
		}
	}

	slog.Debug("parsed month page",
		"month", month.String(),
		"variant", string(variant),
		"samples", len(samples),
	)
	return samples, nil
}

type dayLine struct {
	day    int
	values [hoursPerDay]int
}

func parseDay(line string, layout lineLayout) (dayLine, error) {
	var out dayLine
	if len(line) < layout.lineWidth() {
		return out, fmt.Errorf("line is %d columns, want at least %d", len(line), layout.lineWidth())
	}

	day, err := strconv.Atoi(strings.TrimSpace(line[:layout.dayWidth]))
	if err != nil {
		return out, fmt.Errorf("bad day number %q: %w", line[:layout.dayWidth], err)
	}
	out.day = day

	for h := 1; h <= hoursPerDay; h++ {
		lo := layout.fieldStart(h)
		field := strings.TrimSpace(line[lo : lo+layout.fieldWidth])
		v, err := strconv.Atoi(field)
		if err != nil {
			return out, fmt.Errorf("hour %d field %q is not numeric: %w", h, field, err)
		}
		out.values[h-1] = v
	}
	return out, nil
}

// extractTable returns the fixed-width table text. HTML pages carry it in a
// single <pre class="data"> element; bare-text pages are the table itself.
func extractTable(raw []byte, month dst.MonthKey, variant dst.Variant) (string, error) {
	if !bytes.Contains(raw, []byte("<pre")) && !bytes.Contains(raw, []byte("<html")) {
		return string(raw), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", &Error{Month: month, Variant: variant, Message: "unreadable HTML", Cause: err}
	}

	sel := doc.Find(`pre.data`)
	switch sel.Length() {
	case 0:
		return "", &Error{Month: month, Variant: variant, Message: `no <pre class="data"> element`}
	case 1:
		return sel.Text(), nil
	default:
		return "", &Error{
			Month:   month,
			Variant: variant,
			Message: fmt.Sprintf(`found %d <pre class="data"> elements, want 1`, sel.Length()),
		}
	}
}
