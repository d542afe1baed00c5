package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/dstplot/internal/dst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march89 = dst.MonthKey{Year: 1989, Month: time.March}

func TestCache_PutGet(t *testing.T) {
	c := New(t.TempDir())

	_, ok, err := c.Get(march89, dst.Final)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache must miss")

	raw := []byte("<html>march 1989</html>")
	require.NoError(t, c.Put(march89, dst.Final, raw))

	got, ok, err := c.Get(march89, dst.Final)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, raw, got)
}

func TestCache_PathNaming(t *testing.T) {
	c := New("/tmp/dstcache")
	assert.Equal(t, "/tmp/dstcache/198903_final.html", c.Path(march89, dst.Final))
	assert.Equal(t, "/tmp/dstcache/198903_provisional.html", c.Path(march89, dst.Provisional))
}

func TestCache_VariantsAreDistinctEntries(t *testing.T) {
	c := New(t.TempDir())
	require.NoError(t, c.Put(march89, dst.Final, []byte("final")))
	require.NoError(t, c.Put(march89, dst.Provisional, []byte("provisional")))

	got, ok, err := c.Get(march89, dst.Provisional)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("provisional"), got)
}

func TestCache_ExternalDeletionIsAMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Put(march89, dst.Final, []byte("x")))
	require.NoError(t, os.Remove(c.Path(march89, dst.Final)))

	_, ok, err := c.Get(march89, dst.Final)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_ProvisionalExpires(t *testing.T) {
	now := time.Now()
	c := New(t.TempDir(),
		WithMaxProvisionalAge(time.Hour),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, c.Put(march89, dst.Provisional, []byte("x")))

	_, ok, err := c.Get(march89, dst.Provisional)
	require.NoError(t, err)
	assert.True(t, ok, "fresh provisional entry must hit")

	now = now.Add(2 * time.Hour)
	_, ok, err = c.Get(march89, dst.Provisional)
	require.NoError(t, err)
	assert.False(t, ok, "stale provisional entry must miss")
}

func TestCache_FinalNeverExpires(t *testing.T) {
	now := time.Now()
	c := New(t.TempDir(),
		WithMaxProvisionalAge(time.Hour),
		WithClock(func() time.Time { return now.Add(24 * 365 * time.Hour) }),
	)
	require.NoError(t, c.Put(march89, dst.Final, []byte("x")))

	_, ok, err := c.Get(march89, dst.Final)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_PutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Put(march89, dst.Final, []byte("x")))

	items, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, filepath.Base(c.Path(march89, dst.Final)), items[0].Name())
}

func TestCache_ListAndClear(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	april89 := dst.MonthKey{Year: 1989, Month: time.April}
	require.NoError(t, c.Put(april89, dst.Provisional, []byte("a")))
	require.NoError(t, c.Put(march89, dst.Final, []byte("m")))

	// Foreign files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0644))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, march89, entries[0].Month)
	assert.Equal(t, dst.Final, entries[0].Variant)
	assert.Equal(t, april89, entries[1].Month)

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err = c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The foreign file survives.
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestCache_ListMissingDirectory(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "never-created"))
	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"198903_final.html", true},
		{"198903_provisional.html", true},
		{"202406_realtime.html", true},
		{"198903_final.html.tmp123", false},
		{"198913_final.html", false},
		{"19890_final.html", false},
		{"198903_quicklook.html", false},
		{"readme.md", false},
	}
	for _, c := range cases {
		_, _, ok := parseName(c.name)
		assert.Equal(t, c.ok, ok, "parseName(%q)", c.name)
	}
}
