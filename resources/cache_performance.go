package resources

import (
	"time"
)

// recordCacheHit increments cache hit counter
func (pc *ParseCache) recordCacheHit() {
	pc.stats.mutex.Lock()
	defer pc.stats.mutex.Unlock()
	pc.stats.TotalRequests++
	pc.stats.CacheHits++
}

// recordCacheMiss increments cache miss counter
func (pc *ParseCache) recordCacheMiss() {
	pc.stats.mutex.Lock()
	defer pc.stats.mutex.Unlock()
	pc.stats.TotalRequests++
	pc.stats.CacheMisses++
}

// GetPerformanceStats returns hit and miss counters of the cache
func (pc *ParseCache) GetPerformanceStats() map[string]interface{} {
	pc.stats.mutex.RLock()
	defer pc.stats.mutex.RUnlock()

	hitRate := 0.0
	if pc.stats.TotalRequests > 0 {
		hitRate = float64(pc.stats.CacheHits) / float64(pc.stats.TotalRequests) * 100
	}

	uptime := time.Since(pc.stats.LastResetTime)

	return map[string]interface{}{
		"total_requests":   pc.stats.TotalRequests,
		"cache_hits":       pc.stats.CacheHits,
		"cache_misses":     pc.stats.CacheMisses,
		"hit_rate_percent": hitRate,
		"uptime_human":     uptime.Round(time.Millisecond).String(),
		"last_reset":       pc.stats.LastResetTime.Format(time.RFC3339),
	}
}

// ResetPerformanceStats resets all performance counters
func (pc *ParseCache) ResetPerformanceStats() {
	pc.stats.mutex.Lock()
	defer pc.stats.mutex.Unlock()

	pc.stats.TotalRequests = 0
	pc.stats.CacheHits = 0
	pc.stats.CacheMisses = 0
	pc.stats.LastResetTime = time.Now()
}
