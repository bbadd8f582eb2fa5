package resources

import (
	"os"
	"sort"
	"sync"
	"time"
)

// CacheEntry is a parsed data file with the metadata it was parsed from.
type CacheEntry struct {
	Data      interface{}
	Timestamp time.Time
	FileSize  int64
	ModTime   time.Time
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// ParseCache memoizes parsed values by absolute path. Entries never expire;
// Clear drops them all.
type ParseCache struct {
	entries map[string]*CacheEntry
	mutex   sync.RWMutex
	stats   *CacheStats
}

// NewParseCache creates an empty parse cache.
func NewParseCache() *ParseCache {
	return &ParseCache{
		entries: make(map[string]*CacheEntry),
		stats: &CacheStats{
			LastResetTime: time.Now(),
		},
	}
}

// Get returns the cached value for path.
func (pc *ParseCache) Get(path string) (interface{}, bool) {
	pc.mutex.RLock()
	entry, found := pc.entries[path]
	pc.mutex.RUnlock()

	if !found {
		pc.recordCacheMiss()
		return nil, false
	}
	pc.recordCacheHit()
	return entry.Data, true
}

// GetOrLoad returns the cached value for path, calling load on a miss. Loads
// run under the write lock so a path is never parsed twice.
func (pc *ParseCache) GetOrLoad(path string, load func() (interface{}, error)) (interface{}, error) {
	if data, found := pc.Get(path); found {
		return data, nil
	}

	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	// Another caller may have loaded it while we waited for the lock.
	if entry, found := pc.entries[path]; found {
		return entry.Data, nil
	}

	data, err := load()
	if err != nil {
		return nil, err
	}

	entry := &CacheEntry{Data: data, Timestamp: time.Now()}
	if info, err := os.Stat(path); err == nil {
		entry.FileSize = info.Size()
		entry.ModTime = info.ModTime()
	}
	pc.entries[path] = entry

	return data, nil
}

// Delete removes a cache entry
func (pc *ParseCache) Delete(path string) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	delete(pc.entries, path)
}

// Clear removes all cache entries
func (pc *ParseCache) Clear() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	pc.entries = make(map[string]*CacheEntry)
}

// Len returns the number of cached paths.
func (pc *ParseCache) Len() int {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()
	return len(pc.entries)
}

// Paths returns the cached paths in sorted order.
func (pc *ParseCache) Paths() []string {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	paths := make([]string, 0, len(pc.entries))
	for path := range pc.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// StalePaths returns cached paths whose file changed or disappeared since it
// was parsed.
func (pc *ParseCache) StalePaths() []string {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	var stale []string
	for path, entry := range pc.entries {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Equal(entry.ModTime) || info.Size() != entry.FileSize {
			stale = append(stale, path)
		}
	}
	sort.Strings(stale)
	return stale
}

// GetCacheStats returns storage statistics of the cache
func (pc *ParseCache) GetCacheStats() map[string]interface{} {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	var totalSize int64
	oldest := time.Time{}
	newest := time.Time{}
	for _, entry := range pc.entries {
		totalSize += entry.FileSize
		if oldest.IsZero() || entry.Timestamp.Before(oldest) {
			oldest = entry.Timestamp
		}
		if entry.Timestamp.After(newest) {
			newest = entry.Timestamp
		}
	}

	stats := map[string]interface{}{
		"cached_files": len(pc.entries),
		"total_size":   totalSize,
	}
	if len(pc.entries) > 0 {
		stats["oldest_entry"] = oldest.Format(time.RFC3339)
		stats["newest_entry"] = newest.Format(time.RFC3339)
	}
	return stats
}
