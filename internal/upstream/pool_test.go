package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServersCreatesHealthyStats(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{{ID: 1, Name: "a", Address: "1.1.1.1", Protocol: Udp, Enabled: true}})

	snap, ok := p.StatsFor(1)
	require.True(t, ok)
	assert.True(t, snap.Healthy)
}

func TestLoadServersDropsRemovedStats(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{{ID: 1, Enabled: true}, {ID: 2, Enabled: true}})
	p.RecordFailure(1)

	p.LoadServers([]Server{{ID: 2, Enabled: true}})
	_, ok := p.StatsFor(1)
	assert.False(t, ok)
}

func TestLoadServersPreservesExistingStatsOnReload(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{{ID: 1, Enabled: true}})
	p.RecordSuccess(1, 10)

	p.LoadServers([]Server{{ID: 1, Enabled: true}})
	snap, ok := p.StatsFor(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Successes)
}

func TestGetHealthyServersExcludesDisabledAndUnhealthy(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{
		{ID: 1, Name: "enabled-healthy", Enabled: true},
		{ID: 2, Name: "disabled", Enabled: false},
		{ID: 3, Name: "enabled-unhealthy", Enabled: true},
	})
	for i := 0; i < 5; i++ {
		p.RecordFailure(3)
	}

	healthy := p.GetHealthyServers()
	require.Len(t, healthy, 1)
	assert.Equal(t, "enabled-healthy", healthy[0].Name)
}

func TestRecordFailureMarksUnhealthyOnlyAfterThreshold(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{{ID: 1, Enabled: true}})

	for i := 0; i < 4; i++ {
		p.RecordFailure(1)
	}
	snap, _ := p.StatsFor(1)
	assert.True(t, snap.Healthy, "below sample threshold, health must not degrade")

	p.RecordFailure(1)
	snap, _ = p.StatsFor(1)
	assert.False(t, snap.Healthy, "5 queries all failed: success rate 0 < 0.5")
}

func TestRecordSuccessAlwaysRestoresHealthy(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{{ID: 1, Enabled: true}})
	for i := 0; i < 5; i++ {
		p.RecordFailure(1)
	}
	snap, _ := p.StatsFor(1)
	require.False(t, snap.Healthy)

	p.RecordSuccess(1, 5)
	snap, _ = p.StatsFor(1)
	assert.True(t, snap.Healthy)
}

func TestGetFastestServerPrefersLowerAverage(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{
		{ID: 1, Name: "slow", Enabled: true},
		{ID: 2, Name: "fast", Enabled: true},
	})
	p.RecordSuccess(1, 200)
	p.RecordSuccess(2, 20)

	fastest, ok := p.GetFastestServer()
	require.True(t, ok)
	assert.Equal(t, "fast", fastest.Name)
}

func TestGetFastestServerSortsUnknownHistoryLast(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{
		{ID: 1, Name: "no-history", Enabled: true},
		{ID: 2, Name: "known", Enabled: true},
	})
	p.RecordSuccess(2, 50)

	fastest, ok := p.GetFastestServer()
	require.True(t, ok)
	assert.Equal(t, "known", fastest.Name)
}

func TestResetHealthClearsUnhealthyWithoutTouchingCounters(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{{ID: 1, Enabled: true}})
	for i := 0; i < 5; i++ {
		p.RecordFailure(1)
	}
	p.ResetHealth(1)

	snap, _ := p.StatsFor(1)
	assert.True(t, snap.Healthy)
	assert.Equal(t, uint64(5), snap.Failures)
}

func TestHasRecentSuccessWindow(t *testing.T) {
	p := NewPool()
	p.LoadServers([]Server{{ID: 1, Enabled: true}})
	assert.False(t, p.HasRecentSuccess(1, time.Minute))

	p.RecordSuccess(1, 1)
	assert.True(t, p.HasRecentSuccess(1, time.Minute))
	assert.False(t, p.HasRecentSuccess(1, 0))
}

func TestProtocolDefaultPort(t *testing.T) {
	assert.Equal(t, 53, Udp.DefaultPort())
	assert.Equal(t, 853, Dot.DefaultPort())
	assert.Equal(t, 443, Doh.DefaultPort())
	assert.Equal(t, 853, Doq.DefaultPort())
	assert.Equal(t, 443, Doh3.DefaultPort())
}
