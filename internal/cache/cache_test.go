package cache

import (
	"net"
	"testing"
	"time"

	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustA(t *testing.T, name string, ip string) dnswire.Record {
	t.Helper()
	rr, ok := dnswire.NewARecord(name, 300, net.ParseIP(ip))
	require.True(t, ok)
	return rr
}

func TestCacheSetGetHit(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxEntries: 10})
	key := Key{Name: "cached.test", Type: dnswire.TypeA}
	resp := dnswire.Response{ID: 1, ResponseCode: dnswire.NoError, Answers: []dnswire.Record{mustA(t, "cached.test", "1.2.3.4")}}
	c.Set(key, resp)

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Len(t, got.Answers, 1)
	ip, ok := got.Answers[0].IPv4()
	require.True(t, ok)
	assert.Equal(t, "1.2.3.4", ip)
}

func TestCacheMissOnExpiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Nanosecond, MaxEntries: 10})
	key := Key{Name: "x.test", Type: dnswire.TypeA}
	c.Set(key, dnswire.Response{ID: 1})
	time.Sleep(time.Millisecond)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCacheKeyCaseInsensitive(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxEntries: 10})
	c.Set(Key{Name: "Example.COM", Type: dnswire.TypeA}, dnswire.Response{ID: 7})
	got, ok := c.Get(Key{Name: "example.com", Type: dnswire.TypeA})
	require.True(t, ok)
	assert.Equal(t, uint16(7), got.ID)
}

func TestCacheHitMissCounters(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxEntries: 10})
	key := Key{Name: "a.test", Type: dnswire.TypeA}
	_, _ = c.Get(key)
	c.Set(key, dnswire.Response{ID: 1})
	_, _ = c.Get(key)
	_, _ = c.Get(Key{Name: "b.test", Type: dnswire.TypeA})

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(2), st.Misses)
}

func TestCacheEvictionKeepsSizeBounded(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxEntries: 3})
	for i := 0; i < 20; i++ {
		key := Key{Name: "domain", Type: dnswire.RecordType(i)}
		c.Set(key, dnswire.Response{ID: uint16(i)})
	}
	st := c.Stats()
	assert.LessOrEqual(t, st.Entries, 3)
}

func TestCacheClearDomain(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxEntries: 10})
	c.Set(Key{Name: "x.test", Type: dnswire.TypeA}, dnswire.Response{ID: 1})
	c.Set(Key{Name: "x.test", Type: dnswire.TypeAAAA}, dnswire.Response{ID: 2})
	c.Set(Key{Name: "y.test", Type: dnswire.TypeA}, dnswire.Response{ID: 3})

	c.ClearDomain("X.Test")
	_, ok1 := c.Get(Key{Name: "x.test", Type: dnswire.TypeA})
	_, ok2 := c.Get(Key{Name: "x.test", Type: dnswire.TypeAAAA})
	_, ok3 := c.Get(Key{Name: "y.test", Type: dnswire.TypeA})
	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3)
}

func TestCacheClearResetsCounters(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxEntries: 10})
	c.Set(Key{Name: "a.test", Type: dnswire.TypeA}, dnswire.Response{})
	_, _ = c.Get(Key{Name: "a.test", Type: dnswire.TypeA})
	c.Clear()
	st := c.Stats()
	assert.Zero(t, st.Hits)
	assert.Zero(t, st.Misses)
	assert.Zero(t, st.Entries)
}
