package analyzer

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-claude-latency/internal/data/cache"
	"github.com/penwyp/go-claude-latency/internal/util"
)

// CacheStats holds statistics for cache usage
type CacheStats struct {
	totalFiles  int64
	cacheHits   int64
	cacheMisses int64
	failures    int64
	mu          sync.Mutex
	missDetails []MissDetail
}

// MissDetail records details of a cache miss
type MissDetail struct {
	FilePath string
	Reason   cache.CacheMissReason
}

// NewCacheStats creates a new CacheStats instance
func NewCacheStats() *CacheStats {
	return &CacheStats{
		missDetails: make([]MissDetail, 0),
	}
}

// IncrementTotal increases the total file count
func (cs *CacheStats) IncrementTotal() {
	atomic.AddInt64(&cs.totalFiles, 1)
}

// IncrementHit increases the cache hit count
func (cs *CacheStats) IncrementHit() {
	atomic.AddInt64(&cs.cacheHits, 1)
}

// IncrementMiss increases the cache miss count and records the miss detail
func (cs *CacheStats) IncrementMiss(filePath string, reason cache.CacheMissReason) {
	atomic.AddInt64(&cs.cacheMisses, 1)

	cs.mu.Lock()
	cs.missDetails = append(cs.missDetails, MissDetail{
		FilePath: filePath,
		Reason:   reason,
	})
	cs.mu.Unlock()
}

// IncrementFailure increases the failure count
func (cs *CacheStats) IncrementFailure() {
	atomic.AddInt64(&cs.failures, 1)
}

// GetStats returns the current statistics and hit rate
func (cs *CacheStats) GetStats() (total, hits, misses, failures int64, hitRate float64) {
	total = atomic.LoadInt64(&cs.totalFiles)
	hits = atomic.LoadInt64(&cs.cacheHits)
	misses = atomic.LoadInt64(&cs.cacheMisses)
	failures = atomic.LoadInt64(&cs.failures)

	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return
}

// MissReasons counts misses per reason.
func (cs *CacheStats) MissReasons() map[cache.CacheMissReason]int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	counts := make(map[cache.CacheMissReason]int)
	for _, detail := range cs.missDetails {
		counts[detail.Reason]++
	}
	return counts
}

// LogProgress logs the current file progress and cache hit rate
func (cs *CacheStats) LogProgress(logger util.LoggerInterface, processed int64) {
	total, hits, misses, failures, hitRate := cs.GetStats()

	logger.Debugf("File progress: processed %d/%d files, cache hit rate: %.1f%% (%d hits/%d misses/%d failures)",
		processed, total, hitRate, hits, misses, failures)
}

// LogFinalStats logs the final cache statistics and a summary of miss reasons
func (cs *CacheStats) LogFinalStats(logger util.LoggerInterface) {
	total, hits, misses, failures, hitRate := cs.GetStats()

	logger.Infof("Cache statistics: total files %d, hit rate %.1f%% (%d hits/%d misses/%d failures)",
		total, hitRate, hits, misses, failures)

	if misses == 0 {
		return
	}

	counts := cs.MissReasons()
	reasons := make([]cache.CacheMissReason, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	for _, reason := range reasons {
		logger.Debugf("  cache miss %s: %d files", reason, counts[reason])
	}
}
