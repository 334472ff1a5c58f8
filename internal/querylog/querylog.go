// Package querylog provides a best-effort async append queue for DNS
// query log entries and a background retention sweep, grounded on
// original_source/backend/src/main.rs's startup cleanup task and
// backend/src/db/repository.rs's query log methods. The queue shape
// (buffered channel + drain goroutine, drop-on-full) mirrors the
// non-blocking dispatch idiom used elsewhere in this module's ingress
// path.
package querylog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fluxdns/fluxdns/internal/resolver"
	"github.com/fluxdns/fluxdns/internal/store"
)

// queueSize bounds pending log entries; once full, LogAsync drops the
// entry rather than blocking the resolution path: logging must never
// alter or delay the answer already returned to the client.
const queueSize = 4096

// Store is the persistence surface the logger writes through and the
// retention sweep deletes through.
type Store interface {
	InsertQueryLog(ctx context.Context, r store.QueryLogRow) error
	DeleteQueryLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	GetConfig(ctx context.Context, key string) (string, error)
}

// Logger implements resolver.QueryLogger: LogAsync enqueues an entry
// and returns immediately; a single drain goroutine performs the
// actual insert.
type Logger struct {
	Store  Store
	Logger *slog.Logger

	queue chan resolver.QueryLogEntry
	wg    sync.WaitGroup
}

// New constructs a Logger and starts its drain goroutine. Call
// Stop() to flush and shut it down.
func New(store Store, logger *slog.Logger) *Logger {
	l := &Logger{
		Store:  store,
		Logger: logger,
		queue:  make(chan resolver.QueryLogEntry, queueSize),
	}
	l.wg.Add(1)
	go l.drain()
	return l
}

// LogAsync implements resolver.QueryLogger. Never blocks: if the
// queue is full the entry is dropped.
func (l *Logger) LogAsync(entry resolver.QueryLogEntry) {
	select {
	case l.queue <- entry:
	default:
		if l.Logger != nil {
			l.Logger.Warn("query log queue full, dropping entry", "qname", entry.QueryName)
		}
	}
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for entry := range l.queue {
		row := store.QueryLogRow{
			ClientIP:       entry.ClientIP,
			QueryName:      entry.QueryName,
			QueryType:      entry.QueryType.String(),
			ResponseCode:   entry.ResponseCode,
			ResponseTimeMs: entry.ResponseTimeMs,
			CacheHit:       entry.CacheHit,
			UpstreamUsed:   entry.UpstreamUsed,
		}
		if err := l.Store.InsertQueryLog(context.Background(), row); err != nil && l.Logger != nil {
			l.Logger.Warn("query log insert failed", "error", err)
		}
	}
}

// Stop closes the queue and waits for the drain goroutine to finish
// flushing already-queued entries.
func (l *Logger) Stop() {
	close(l.queue)
	l.wg.Wait()
}
