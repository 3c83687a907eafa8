package cache

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCacheSetGet(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), time.Hour, false, 0)
	require.NoError(t, err)

	_, err = dc.Get("missing")
	assert.ErrorIs(t, err, ErrCacheNotFound)

	require.NoError(t, dc.Set("photos/a.png", []byte("first")))
	require.NoError(t, dc.Set("photos/a.png", []byte("second")))

	data, err := dc.Get("photos/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	require.NoError(t, dc.Delete("photos/a.png"))
	_, err = dc.Get("photos/a.png")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestDiskCacheLayout(t *testing.T) {
	base := t.TempDir()
	dc, err := NewDiskCache(base, time.Hour, false, 0)
	require.NoError(t, err)
	require.NoError(t, dc.Set("key", []byte("v")))

	hash := hashKey("key")
	matches, err := filepath.Glob(filepath.Join(base, hash[62:], hash[60:62], hash+"_*.cache"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestDiskCachePruneExpired(t *testing.T) {
	base := t.TempDir()
	dc, err := NewDiskCache(base, time.Hour, false, 0)
	require.NoError(t, err)
	require.NoError(t, dc.Set("fresh", []byte("ok")))

	hash := hashKey("stale")
	dir := dc.dirFor(hash)
	require.NoError(t, os.MkdirAll(dir, 0755))
	expired := time.Now().Add(-time.Minute).Unix()
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash+"_"+itoa(expired)+".cache"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "garbage.cache"), []byte("x"), 0644))

	_, err = dc.Get("stale")
	assert.ErrorIs(t, err, ErrCacheNotFound)

	stats := dc.Prune()
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 2, stats.Deleted)
	assert.Equal(t, 1, stats.Kept)

	data, err := dc.Get("fresh")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
}

func TestDiskCachePruneMaxSize(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), time.Hour, false, 10)
	require.NoError(t, err)

	require.NoError(t, dc.Set("a", make([]byte, 8)))
	require.NoError(t, dc.Set("b", make([]byte, 8)))

	stats := dc.Prune()
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, 1, stats.Kept)
	assert.LessOrEqual(t, stats.Size, int64(10))
}

func TestDiskCacheClearOnStartup(t *testing.T) {
	base := t.TempDir()
	dc, err := NewDiskCache(base, time.Hour, false, 0)
	require.NoError(t, err)
	require.NoError(t, dc.Set("a", []byte("1")))

	dc, err = NewDiskCache(base, time.Hour, true, 0)
	require.NoError(t, err)
	_, err = dc.Get("a")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestMemoryCache(t *testing.T) {
	_, err := NewMemoryCache(MemoryCacheConfig{Name: "bad"})
	require.Error(t, err)

	mc, err := NewMemoryCache(MemoryCacheConfig{Name: "test", MaxSize: 1 << 20})
	require.NoError(t, err)
	defer mc.Close()

	mc.Set("k", []byte("value"))
	mc.Wait()

	data, ok := mc.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), data)

	mc.Delete("k")
	mc.Wait()
	_, ok = mc.Get("k")
	assert.False(t, ok)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0", formatBytes(0))
	assert.Equal(t, "512.00B", formatBytes(512))
	assert.Equal(t, "1.50KB", formatBytes(1536))
	assert.Equal(t, "2.00MB", formatBytes(2<<20))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
