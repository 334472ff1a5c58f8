package store

import (
	"context"
	"fmt"
	"time"
)

// QueryLogRow is a persisted query_logs entry.
type QueryLogRow struct {
	ID             int64
	ClientIP       string
	QueryName      string
	QueryType      string
	ResponseCode   string
	ResponseTimeMs int64
	CacheHit       bool
	UpstreamUsed   string
	CreatedAt      time.Time
}

// InsertQueryLog appends one query log row.
func (db *DB) InsertQueryLog(ctx context.Context, r QueryLogRow) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO query_logs (client_ip, query_name, query_type, response_code,
			response_time_ms, cache_hit, upstream_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, r.ClientIP, r.QueryName, r.QueryType, nullIfEmpty(r.ResponseCode), r.ResponseTimeMs, r.CacheHit, nullIfEmpty(r.UpstreamUsed))
	if err != nil {
		return fmt.Errorf("store: insert query log: %w", err)
	}
	return nil
}

// QueryLogFilter narrows ListQueryLogs results.
type QueryLogFilter struct {
	QueryName string
	Limit     int
	Offset    int
}

// ListQueryLogs returns query log rows newest-first, optionally
// filtered by a query name substring and paginated.
func (db *DB) ListQueryLogs(ctx context.Context, f QueryLogFilter) ([]QueryLogRow, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT id, client_ip, query_name, query_type, COALESCE(response_code, ''),
			COALESCE(response_time_ms, 0), cache_hit, COALESCE(upstream_used, ''), created_at
		FROM query_logs
	`
	args := []any{}
	if f.QueryName != "" {
		query += " WHERE query_name LIKE ?"
		args = append(args, "%"+f.QueryName+"%")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list query logs: %w", err)
	}
	defer rows.Close()

	var out []QueryLogRow
	for rows.Next() {
		var r QueryLogRow
		if err := rows.Scan(&r.ID, &r.ClientIP, &r.QueryName, &r.QueryType, &r.ResponseCode,
			&r.ResponseTimeMs, &r.CacheHit, &r.UpstreamUsed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan query log: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteQueryLogsOlderThan deletes query_logs rows older than cutoff,
// used by the retention sweep that enforces system_config's
// log_retention_days setting.
func (db *DB) DeleteQueryLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM query_logs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: delete old query logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return n, nil
}

// CountQueriesSince counts query_logs rows with created_at >= since,
// backing the stats cache's "queries today" aggregate.
func (db *DB) CountQueriesSince(ctx context.Context, since time.Time) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int64
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_logs WHERE created_at >= ?", since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count queries since: %w", err)
	}
	return n, nil
}
