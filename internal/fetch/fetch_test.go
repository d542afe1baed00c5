package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/dstplot/internal/cache"
	"github.com/jonathan/dstplot/internal/dst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march89 = dst.MonthKey{Year: 1989, Month: time.March}

// archive simulates the WDC web root: a fixed set of (path -> page) plus a
// request counter.
type archive struct {
	pages    map[string]string
	requests atomic.Int64
}

func (a *archive) serve(w http.ResponseWriter, r *http.Request) {
	a.requests.Add(1)
	page, ok := a.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(page))
}

func newTestFetcher(t *testing.T, a *archive, refresh bool) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(srv.Close)

	return New(cache.New(t.TempDir()), &Options{
		BaseURL: srv.URL,
		Refresh: refresh,
	})
}

func TestFetch_DownloadsAndCaches(t *testing.T) {
	a := &archive{pages: map[string]string{
		"/dst_final/198903/index.html": "march final page",
	}}
	f := newTestFetcher(t, a, false)

	raw, err := f.Fetch(context.Background(), march89, dst.Final)
	require.NoError(t, err)
	assert.Equal(t, "march final page", string(raw))
	assert.EqualValues(t, 1, a.requests.Load())
}

func TestFetch_SecondCallIsServedFromCache(t *testing.T) {
	a := &archive{pages: map[string]string{
		"/dst_final/198903/index.html": "march final page",
	}}
	f := newTestFetcher(t, a, false)

	_, err := f.Fetch(context.Background(), march89, dst.Final)
	require.NoError(t, err)
	raw, err := f.Fetch(context.Background(), march89, dst.Final)
	require.NoError(t, err)

	assert.Equal(t, "march final page", string(raw))
	assert.EqualValues(t, 1, a.requests.Load(), "second fetch must not touch the network")
}

func TestFetch_RefreshBypassesCacheReads(t *testing.T) {
	a := &archive{pages: map[string]string{
		"/dst_provisional/202401/index.html": "jan provisional",
	}}
	f := newTestFetcher(t, a, true)

	month := dst.MonthKey{Year: 2024, Month: time.January}
	_, err := f.Fetch(context.Background(), month, dst.Provisional)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), month, dst.Provisional)
	require.NoError(t, err)

	assert.EqualValues(t, 2, a.requests.Load())
}

func TestFetch_NotFound(t *testing.T) {
	f := newTestFetcher(t, &archive{}, false)

	_, err := f.Fetch(context.Background(), march89, dst.Final)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, march89, fe.Month)
	assert.Equal(t, dst.Final, fe.Variant)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.True(t, fe.NotPublished())
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	f := New(cache.New(t.TempDir()), &Options{BaseURL: srv.URL})

	_, err := f.Fetch(context.Background(), march89, dst.Final)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
	assert.False(t, fe.NotPublished())
}

func TestFetch_TransportError(t *testing.T) {
	f := New(cache.New(t.TempDir()), &Options{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Timeout: time.Second,
	})

	_, err := f.Fetch(context.Background(), march89, dst.Final)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Error(t, fe.Cause)
}

func TestVariantsFor(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		month dst.MonthKey
		first dst.Variant
	}{
		{dst.MonthKey{Year: 2024, Month: time.June}, dst.Realtime},
		{dst.MonthKey{Year: 2024, Month: time.May}, dst.Provisional},
		{dst.MonthKey{Year: 2023, Month: time.January}, dst.Provisional},
		{dst.MonthKey{Year: 2022, Month: time.June}, dst.Final},
		{dst.MonthKey{Year: 1989, Month: time.March}, dst.Final},
	}
	for _, c := range cases {
		variants := VariantsFor(c.month, now)
		require.NotEmpty(t, variants, "variants for %s", c.month)
		assert.Equal(t, c.first, variants[0], "preferred variant for %s", c.month)
	}
}

func TestFetchMonth_FallsBackWhenFinalNotPublished(t *testing.T) {
	month := dst.MonthKey{Year: 2022, Month: time.June}
	a := &archive{pages: map[string]string{
		// Final not yet published for this month; provisional is.
		"/dst_provisional/202206/index.html": "june provisional",
	}}
	f := newTestFetcher(t, a, false)
	f.SetClock(func() time.Time {
		return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	})

	raw, variant, err := f.FetchMonth(context.Background(), month)
	require.NoError(t, err)
	assert.Equal(t, "june provisional", string(raw))
	assert.Equal(t, dst.Provisional, variant)
}

func TestFetchMonth_AllVariantsMissing(t *testing.T) {
	f := newTestFetcher(t, &archive{}, false)
	f.SetClock(func() time.Time {
		return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	})

	_, _, err := f.FetchMonth(context.Background(), march89)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.NotPublished())
}

func TestFetchMonth_TransientFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	f := New(cache.New(t.TempDir()), &Options{BaseURL: srv.URL})

	_, _, err := f.FetchMonth(context.Background(), march89)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
	assert.False(t, fe.NotPublished())
}

func TestURL(t *testing.T) {
	f := New(cache.New(t.TempDir()), nil)
	assert.Equal(t,
		"https://wdc.kugi.kyoto-u.ac.jp/dst_final/198903/index.html",
		f.URL(march89, dst.Final))
}
