package resources

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test parse cache basic operations
func TestParseCache_BasicOperations(t *testing.T) {
	tempDir := t.TempDir()
	cache := NewParseCache()

	testFile := writeFile(t, tempDir, "band.yml", "name: Beatles\n")

	data, found := cache.Get(testFile)
	assert.False(t, found) // Should not be cached initially
	assert.Nil(t, data)

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return LoadYAML(testFile)
	}

	first, err := cache.GetOrLoad(testFile, load)
	require.NoError(t, err)
	second, err := cache.GetOrLoad(testFile, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, []string{testFile}, cache.Paths())

	cache.Delete(testFile)
	assert.Equal(t, 0, cache.Len())
}

// Test that failed loads are not cached
func TestParseCache_LoadError(t *testing.T) {
	cache := NewParseCache()

	_, err := cache.GetOrLoad("/missing.yml", func() (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

// Test stale detection when a file is modified after parsing
func TestParseCache_StalePaths(t *testing.T) {
	tempDir := t.TempDir()
	cache := NewParseCache()

	testFile := writeFile(t, tempDir, "band.yml", "name: Beatles\n")
	_, err := cache.GetOrLoad(testFile, func() (interface{}, error) { return LoadYAML(testFile) })
	require.NoError(t, err)
	assert.Empty(t, cache.StalePaths())

	// Wait a moment to ensure different modification time
	time.Sleep(time.Millisecond * 10)
	writeFile(t, tempDir, "band.yml", "name: The Beatles\n")

	assert.Equal(t, []string{testFile}, cache.StalePaths())
}

// Test cache performance tracking
func TestParseCache_PerformanceStats(t *testing.T) {
	tempDir := t.TempDir()
	cache := NewParseCache()

	testFile := writeFile(t, tempDir, "band.yml", "name: Beatles\n")
	load := func() (interface{}, error) { return LoadYAML(testFile) }

	_, err := cache.GetOrLoad(testFile, load)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = cache.GetOrLoad(testFile, load)
		require.NoError(t, err)
	}

	stats := cache.GetPerformanceStats()
	assert.Equal(t, int64(4), stats["total_requests"])
	assert.Equal(t, int64(3), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
	assert.Equal(t, 75.0, stats["hit_rate_percent"])

	storage := cache.GetCacheStats()
	assert.Equal(t, 1, storage["cached_files"])
	assert.Greater(t, storage["total_size"].(int64), int64(0))

	cache.ResetPerformanceStats()
	stats = cache.GetPerformanceStats()
	assert.Equal(t, int64(0), stats["total_requests"])
}

// Test clear drops every entry
func TestParseCache_Clear(t *testing.T) {
	tempDir := t.TempDir()
	cache := NewParseCache()

	for i := 0; i < 5; i++ {
		path := writeFile(t, tempDir, fmt.Sprintf("file_%d.yml", i), "k: v\n")
		_, err := cache.GetOrLoad(path, func() (interface{}, error) { return LoadYAML(path) })
		require.NoError(t, err)
	}
	assert.Equal(t, 5, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.GetCacheStats()["oldest_entry"])
}

// Benchmark parsing with and without the cache
func BenchmarkStore_LoadWithVsWithoutCache(b *testing.B) {
	tempDir := b.TempDir()

	content := "members:\n"
	for i := 0; i < 200; i++ {
		content += fmt.Sprintf("  - name: member %d\n    role: role %d\n", i, i)
	}
	path := writeFile(b, tempDir, filepath.Join("data", "band.yml"), content)

	b.Run("DirectParse", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := LoadYAML(path); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("CachedParse", func(b *testing.B) {
		store, err := NewStore(tempDir, nil)
		require.NoError(b, err)
		_, err = store.Load(path)
		require.NoError(b, err)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := store.Load(path); err != nil {
				b.Fatal(err)
			}
		}
	})
}
