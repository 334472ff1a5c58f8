// Package statscache keeps atomic aggregate query counters in memory
// so admin status reads avoid a COUNT(*) over query_logs on every
// request. Grounded on original_source/backend/src/db/stats_cache.rs,
// translated into the sync/atomic counter idiom used elsewhere in this
// module's hot paths.
package statscache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache holds process-wide query counters plus a day-boundary guard
// for the "queries today" counter.
type Cache struct {
	totalQueries atomic.Int64
	cacheHits    atomic.Int64
	queriesToday atomic.Int64

	dateMu      sync.Mutex
	currentDate string // YYYY-MM-DD, compared under dateMu
}

// New returns a Cache seeded with totals already recorded in the
// store (e.g. at startup, from a COUNT(*) done once).
func New(totalQueries, cacheHits, queriesToday int64, now time.Time) *Cache {
	c := &Cache{currentDate: dateKey(now)}
	c.totalQueries.Store(totalQueries)
	c.cacheHits.Store(cacheHits)
	c.queriesToday.Store(queriesToday)
	return c
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// RecordQuery increments the aggregate counters for one resolved
// query, resetting queriesToday first if the calendar date has
// rolled over since the last call.
func (c *Cache) RecordQuery(cacheHit bool, now time.Time) {
	c.maybeRollDate(now)

	c.totalQueries.Add(1)
	c.queriesToday.Add(1)
	if cacheHit {
		c.cacheHits.Add(1)
	}
}

func (c *Cache) maybeRollDate(now time.Time) {
	today := dateKey(now)

	c.dateMu.Lock()
	defer c.dateMu.Unlock()
	if c.currentDate == today {
		return
	}
	c.currentDate = today
	c.queriesToday.Store(0)
}

// Snapshot is a point-in-time read of the aggregate counters.
type Snapshot struct {
	TotalQueries int64
	CacheHits    int64
	QueriesToday int64
}

// Stats returns the current aggregate counters, rolling the daily
// counter over first if needed.
func (c *Cache) Stats(now time.Time) Snapshot {
	c.maybeRollDate(now)
	return Snapshot{
		TotalQueries: c.totalQueries.Load(),
		CacheHits:    c.cacheHits.Load(),
		QueriesToday: c.queriesToday.Load(),
	}
}
