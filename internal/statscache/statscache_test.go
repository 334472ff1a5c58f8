package statscache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordQueryIncrementsTotalsAndHits(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	c := New(0, 0, 0, now)

	c.RecordQuery(false, now)
	c.RecordQuery(true, now)

	snap := c.Stats(now)
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(2), snap.QueriesToday)
}

func TestRecordQueryResetsQueriesTodayOnDateRollover(t *testing.T) {
	day1 := time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 1, 0, 1, 0, 0, time.UTC)

	c := New(5, 1, 5, day1)
	c.RecordQuery(false, day2)

	snap := c.Stats(day2)
	assert.Equal(t, int64(6), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.QueriesToday, "queries_today must reset on date rollover")
}

func TestStatsAloneTriggersRollover(t *testing.T) {
	day1 := time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 1, 0, 1, 0, 0, time.UTC)

	c := New(3, 0, 3, day1)
	snap := c.Stats(day2)
	assert.Equal(t, int64(0), snap.QueriesToday)
	assert.Equal(t, int64(3), snap.TotalQueries, "rollover must not touch total_queries")
}
