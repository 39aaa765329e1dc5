package reports

import (
	"sync"
	"time"
)

// CacheStats returns cache statistics
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// renderCache keeps rendered reports per format until they expire or the
// employee data changes.
type renderCache struct {
	data   map[ExportFormat]*cacheEntry
	ttl    time.Duration
	now    func() time.Time
	gen    uint64
	hits   int64
	misses int64
	mu     sync.Mutex
}

type cacheEntry struct {
	report     Report
	expiration time.Time
}

func newRenderCache(ttl time.Duration, now func() time.Time) *renderCache {
	return &renderCache{
		data: make(map[ExportFormat]*cacheEntry),
		ttl:  ttl,
		now:  now,
	}
}

// Get returns a copy of the cached report for format
func (c *renderCache) Get(format ExportFormat) (*Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[format]
	if !ok || c.now().After(entry.expiration) {
		delete(c.data, format)
		c.misses++
		return nil, false
	}

	c.hits++
	report := entry.report
	return &report, true
}

// Generation returns the current generation. Clear advances it.
func (c *renderCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Set stores a copy of report rendered during generation gen. Reports from
// an earlier generation are discarded.
func (c *renderCache) Set(report *Report, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}
	c.data[report.Format] = &cacheEntry{
		report:     *report,
		expiration: c.now().Add(c.ttl),
	}
	return true
}

// Clear removes all entries from the cache
func (c *renderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[ExportFormat]*cacheEntry)
	c.gen++
}

// Stats returns hit and miss counters
func (c *renderCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Size:    len(c.data),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}
