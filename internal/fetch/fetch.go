// Package fetch retrieves monthly Dst pages from the WDC Kyoto archive,
// preferring a local cache entry over a network request. The archive exposes
// three editions of each month under predictable URLs; which editions exist
// depends on how old the month is.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonathan/dstplot/internal/cache"
	"github.com/jonathan/dstplot/internal/dst"
)

// DefaultBaseURL is the WDC for Geomagnetism, Kyoto web root.
const DefaultBaseURL = "https://wdc.kugi.kyoto-u.ac.jp"

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the tool to the archive.
const DefaultUserAgent = "dstplot/1.0 (+https://github.com/jonathan/dstplot)"

// finalLagMonths approximates how far behind real time the archive
// finalizes data. Months older than this are expected under the final
// edition; younger months only under provisional or real-time.
const finalLagMonths = 24

// Options configures a Fetcher.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Refresh bypasses cache reads so every month is re-downloaded.
	// Successful responses still land in the cache.
	Refresh bool
}

// DefaultOptions returns the production defaults.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

// Fetcher retrieves raw monthly pages through a cache.
type Fetcher struct {
	client *resty.Client
	cache  *cache.Cache
	opts   Options
	now    func() time.Time
}

// New returns a Fetcher backed by c. A nil opts uses DefaultOptions.
func New(c *cache.Cache, opts *Options) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)

	return &Fetcher{
		client: client,
		cache:  c,
		opts:   *opts,
		now:    time.Now,
	}
}

// SetClock overrides the time source used for variant selection, for tests.
func (f *Fetcher) SetClock(now func() time.Time) {
	f.now = now
}

// Now returns the fetcher's current time in UTC.
func (f *Fetcher) Now() time.Time {
	return f.now().UTC()
}

// URL returns the page address for one (month, variant).
func (f *Fetcher) URL(month dst.MonthKey, variant dst.Variant) string {
	return fmt.Sprintf("%s/dst_%s/%s/index.html", f.opts.BaseURL, variant, month.Code())
}

// Fetch returns the raw page for (month, variant). A cache hit is returned
// without any network access; on a miss the page is downloaded once and
// cached before returning. There is no retry: the tool is user-invoked and
// the cache makes re-invocation cheap.
func (f *Fetcher) Fetch(ctx context.Context, month dst.MonthKey, variant dst.Variant) ([]byte, error) {
	if !f.opts.Refresh {
		raw, ok, err := f.cache.Get(month, variant)
		if err != nil {
			return nil, err
		}
		if ok {
			slog.DebugContext(ctx, "cache hit", "month", month.String(), "variant", string(variant))
			return raw, nil
		}
	}

	url := f.URL(month, variant)
	slog.DebugContext(ctx, "downloading page", "url", url)

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, &Error{Month: month, Variant: variant, URL: url, Cause: err}
	}
	if res.StatusCode() != 200 {
		return nil, &Error{Month: month, Variant: variant, URL: url, StatusCode: res.StatusCode()}
	}

	raw := res.Body()
	if err := f.cache.Put(month, variant, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// VariantsFor returns the editions to try for month, in preference order.
// The current month is only published in real time; recent months as
// provisional; months past the finalization lag as final. Each preference
// keeps a fallback since the archive's finalization schedule is irregular.
func VariantsFor(month dst.MonthKey, now time.Time) []dst.Variant {
	age := monthsBetween(month, dst.MonthOf(now.UTC()))
	switch {
	case age <= 0:
		return []dst.Variant{dst.Realtime, dst.Provisional}
	case age < finalLagMonths:
		return []dst.Variant{dst.Provisional, dst.Realtime, dst.Final}
	default:
		return []dst.Variant{dst.Final, dst.Provisional}
	}
}

// FetchMonth retrieves month under the most authoritative edition available,
// falling back to the next variant when a page is not published. Any other
// failure aborts. The joined not-published errors are returned when every
// eligible variant is missing.
func (f *Fetcher) FetchMonth(ctx context.Context, month dst.MonthKey) ([]byte, dst.Variant, error) {
	var missing []error
	for _, variant := range VariantsFor(month, f.Now()) {
		raw, err := f.Fetch(ctx, month, variant)
		if err == nil {
			return raw, variant, nil
		}

		var fe *Error
		if errors.As(err, &fe) && fe.NotPublished() {
			slog.DebugContext(ctx, "variant not published",
				"month", month.String(), "variant", string(variant))
			missing = append(missing, err)
			continue
		}
		return nil, "", err
	}
	return nil, "", errors.Join(missing...)
}

// monthsBetween returns how many whole months later b is than a.
func monthsBetween(a, b dst.MonthKey) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}
