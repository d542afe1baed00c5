// Package cache persists raw monthly pages in a local directory so repeated
// runs reuse prior downloads. One file per (month, variant), named
// YYYYMM_<variant>.html; the directory listing plus the filename convention
// is the index.
package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/dstplot/internal/dst"
)

// DefaultMaxProvisionalAge bounds how long a provisional or real-time entry
// is served before being treated as a miss. The publisher overwrites those
// editions as data is finalized; final entries never change and never expire.
const DefaultMaxProvisionalAge = 24 * time.Hour

// Cache is a file-directory cache of raw fetched pages.
type Cache struct {
	dir               string
	maxProvisionalAge time.Duration
	now               func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxProvisionalAge overrides the staleness bound for provisional and
// real-time entries. Zero disables expiry entirely.
func WithMaxProvisionalAge(d time.Duration) Option {
	return func(c *Cache) { c.maxProvisionalAge = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns a cache rooted at dir. The directory is created on first Put.
func New(dir string, opts ...Option) *Cache {
	c := &Cache{
		dir:               dir,
		maxProvisionalAge: DefaultMaxProvisionalAge,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the cache file path for one entry.
func (c *Cache) Path(month dst.MonthKey, variant dst.Variant) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.html", month.Code(), variant))
}

// Get returns the cached page for (month, variant), or ok=false on a miss.
// A deleted or stale entry is a miss, not an error. Final entries are served
// forever; provisional and real-time entries only within the staleness bound.
func (c *Cache) Get(month dst.MonthKey, variant dst.Variant) ([]byte, bool, error) {
	path := c.Path(month, variant)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat cache entry %s: %w", path, err)
	}

	if variant != dst.Final && c.maxProvisionalAge > 0 {
		if age := c.now().Sub(info.ModTime()); age > c.maxProvisionalAge {
			slog.Debug("cache entry stale", "path", path, "age", age.String())
			return nil, false, nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", path, err)
	}
	return raw, true, nil
}

// Put stores the page for (month, variant). The write goes to a temporary
// sibling and is renamed into place, so a concurrent reader or a second
// in-flight fetch never observes a torn entry.
func (c *Cache) Put(month dst.MonthKey, variant dst.Variant, raw []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", c.dir, err)
	}

	path := c.Path(month, variant)
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache entry %s: %w", path, err)
	}
	return nil
}

// Invalidate removes the entry for (month, variant) if present.
func (c *Cache) Invalidate(month dst.MonthKey, variant dst.Variant) error {
	err := os.Remove(c.Path(month, variant))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

// Entry describes one cached page, as reported by List.
type Entry struct {
	Month   dst.MonthKey
	Variant dst.Variant
	Size    int64
	ModTime time.Time
}

// List returns all well-formed entries in the cache directory, sorted by
// month then variant. Foreign files are skipped.
func (c *Cache) List() ([]Entry, error) {
	items, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory %s: %w", c.dir, err)
	}

	var entries []Entry
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		month, variant, ok := parseName(item.Name())
		if !ok {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Month:   month,
			Variant: variant,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Month != entries[j].Month {
			return entries[i].Month.Before(entries[j].Month)
		}
		return entries[i].Variant < entries[j].Variant
	})
	return entries, nil
}

// Clear deletes every well-formed entry. Foreign files are left alone.
func (c *Cache) Clear() (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := c.Invalidate(e.Month, e.Variant); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// parseName decodes a YYYYMM_<variant>.html cache filename.
func parseName(name string) (dst.MonthKey, dst.Variant, bool) {
	base, ok := strings.CutSuffix(name, ".html")
	if !ok {
		return dst.MonthKey{}, "", false
	}
	code, rest, ok := strings.Cut(base, "_")
	if !ok || len(code) != 6 {
		return dst.MonthKey{}, "", false
	}
	var year, month int
	if _, err := fmt.Sscanf(code, "%4d%2d", &year, &month); err != nil {
		return dst.MonthKey{}, "", false
	}
	if month < 1 || month > 12 {
		return dst.MonthKey{}, "", false
	}
	variant := dst.Variant(rest)
	switch variant {
	case dst.Final, dst.Provisional, dst.Realtime:
		return dst.MonthKey{Year: year, Month: time.Month(month)}, variant, true
	}
	return dst.MonthKey{}, "", false
}
