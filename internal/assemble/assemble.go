// Package assemble turns a requested date interval into a validated,
// gap-aware hourly Dst series, driving the fetcher and parser one month page
// at a time and trimming the concatenated result to the exact range.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonathan/dstplot/internal/dst"
	"github.com/jonathan/dstplot/internal/fetch"
	"github.com/jonathan/dstplot/internal/parse"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel month downloads. Months are independent
// and merged by index afterward, so parallelism never reorders the series.
const DefaultConcurrency = 4

// Assembler builds hourly series from monthly pages.
type Assembler struct {
	fetcher     *fetch.Fetcher
	concurrency int
}

// New returns an Assembler over f. concurrency <= 0 uses the default.
func New(f *fetch.Fetcher, concurrency int) *Assembler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Assembler{fetcher: f, concurrency: concurrency}
}

// Assemble fetches, parses and merges every month the range touches, then
// trims the result to [start 00:00, end 23:00]. On success the series holds
// exactly one sample per hour of the range; hours the publisher marked
// missing are present as explicit gaps. Months that cannot be obtained fail
// the whole call with a *RangeUnavailableError naming them.
func (a *Assembler) Assemble(ctx context.Context, r dst.DateRange) (dst.Series, error) {
	months := r.Months()
	if err := a.checkBounds(r, months); err != nil {
		return dst.Series{}, err
	}

	byMonth := make([][]dst.Sample, len(months))
	unavailable := make([]error, len(months))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, month := range months {
		i, month := i, month
		g.Go(func() error {
			raw, variant, err := a.fetcher.FetchMonth(ctx, month)
			if err != nil {
				var fe *fetch.Error
				if errors.As(err, &fe) && fe.NotPublished() {
					unavailable[i] = err
					return nil
				}
				return err
			}
			samples, err := parse.Parse(raw, month, variant)
			if err != nil {
				return err
			}
			byMonth[i] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dst.Series{}, err
	}

	var missingMonths []dst.MonthKey
	var causes []error
	for i, month := range months {
		if unavailable[i] != nil {
			missingMonths = append(missingMonths, month)
			causes = append(causes, unavailable[i])
		}
	}
	if len(missingMonths) > 0 {
		return dst.Series{}, &RangeUnavailableError{
			Range:  r,
			Months: missingMonths,
			Cause:  errors.Join(causes...),
		}
	}

	var all []dst.Sample
	for _, samples := range byMonth {
		all = append(all, samples...)
	}
	series := dst.Series{Range: r, Samples: trim(all, r)}
	if err := verify(series); err != nil {
		return dst.Series{}, err
	}

	slog.DebugContext(ctx, "assembled series",
		"range", r.String(),
		"months", len(months),
		"samples", len(series.Samples),
		"gaps", len(series.Gaps()),
	)
	return series, nil
}

func (a *Assembler) checkBounds(r dst.DateRange, months []dst.MonthKey) error {
	if first := months[0]; first.Year < dst.FirstYear {
		return &RangeUnavailableError{
			Range:  r,
			Months: []dst.MonthKey{first},
			Cause:  fmt.Errorf("the archive begins in %d", dst.FirstYear),
		}
	}

	current := dst.MonthOf(a.fetcher.Now())
	var future []dst.MonthKey
	for _, m := range months {
		if m.After(current) {
			future = append(future, m)
		}
	}
	if len(future) > 0 {
		return &RangeUnavailableError{
			Range:  r,
			Months: future,
			Cause:  fmt.Errorf("month is in the future (current month is %s)", current),
		}
	}
	return nil
}

// trim drops samples outside the range at hour granularity.
func trim(samples []dst.Sample, r dst.DateRange) []dst.Sample {
	first, last := r.FirstHour(), r.LastHour()
	lo := sort.Search(len(samples), func(i int) bool {
		return !samples[i].Time.Before(first)
	})
	hi := sort.Search(len(samples), func(i int) bool {
		return samples[i].Time.After(last)
	})
	return samples[lo:hi]
}

// verify checks the assembled invariant: one sample per hour of the range,
// strictly contiguous. The parser guarantees this per month; verify catches
// any seam defect between months.
func verify(s dst.Series) error {
	want := s.Range.Hours()
	if len(s.Samples) != want {
		return fmt.Errorf("assembled series for %s has %d samples, want %d hours",
			s.Range, len(s.Samples), want)
	}
	expect := s.Range.FirstHour()
	for _, sm := range s.Samples {
		if !sm.Time.Equal(expect) {
			return fmt.Errorf("assembled series for %s has sample at %s, want %s",
				s.Range, sm.Time.Format("2006-01-02T15"), expect.Format("2006-01-02T15"))
		}
		expect = expect.Add(time.Hour)
	}
	return nil
}
