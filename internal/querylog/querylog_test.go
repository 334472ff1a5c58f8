package querylog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/resolver"
	"github.com/fluxdns/fluxdns/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	inserted []store.QueryLogRow
	config   map[string]string
	deleted  int64
	// deleteCalls counts DeleteQueryLogsOlderThan invocations.
	deleteCalls int
}

func newFakeStore(config map[string]string) *fakeStore {
	return &fakeStore{config: config}
}

func (s *fakeStore) InsertQueryLog(ctx context.Context, r store.QueryLogRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, r)
	return nil
}

func (s *fakeStore) DeleteQueryLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.deleteCalls++
	return s.deleted, nil
}

func (s *fakeStore) GetConfig(ctx context.Context, key string) (string, error) {
	v, ok := s.config[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) snapshot() []store.QueryLogRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.QueryLogRow, len(s.inserted))
	copy(out, s.inserted)
	return out
}

func TestLogAsyncPersistsEntryThroughDrainGoroutine(t *testing.T) {
	fs := newFakeStore(nil)
	logger := New(fs, nil)
	defer logger.Stop()

	logger.LogAsync(resolver.QueryLogEntry{
		ClientIP:  "10.0.0.5",
		QueryName: "example.test",
		QueryType: dnswire.TypeA,
		CacheHit:  true,
	})

	require.Eventually(t, func() bool {
		return len(fs.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	row := fs.snapshot()[0]
	assert.Equal(t, "example.test", row.QueryName)
	assert.Equal(t, "A", row.QueryType)
	assert.True(t, row.CacheHit)
}

func TestLogAsyncDropsEntriesWhenQueueIsFull(t *testing.T) {
	fs := newFakeStore(nil)
	logger := &Logger{Store: fs, queue: make(chan resolver.QueryLogEntry)} // unbuffered, no drain goroutine running
	logger.LogAsync(resolver.QueryLogEntry{QueryName: "dropped.test"})
	assert.Empty(t, fs.snapshot(), "LogAsync must never block or panic when nothing drains the queue")
}

func TestSweepOnceSkipsWhenAutoCleanupDisabled(t *testing.T) {
	fs := newFakeStore(map[string]string{
		store.ConfigKeyLogAutoCleanup:   "false",
		store.ConfigKeyLogRetentionDays: "30",
	})
	fs.deleted = 5
	sweepOnce(context.Background(), fs, nil, time.Now())
	assert.Equal(t, 0, fs.deleteCalls)
}

func TestSweepOnceDeletesWhenEnabled(t *testing.T) {
	fs := newFakeStore(map[string]string{
		store.ConfigKeyLogAutoCleanup:   "true",
		store.ConfigKeyLogRetentionDays: "30",
	})
	fs.deleted = 3
	sweepOnce(context.Background(), fs, nil, time.Now())
	assert.Equal(t, 1, fs.deleteCalls)
}
