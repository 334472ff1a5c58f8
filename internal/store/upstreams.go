package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxdns/fluxdns/internal/upstream"
)

// UpstreamRow is a persisted upstream_servers row.
type UpstreamRow struct {
	ID       int64
	Name     string
	Address  string
	Protocol string
	TimeoutMs int64
	Enabled  bool
}

// ListUpstreams returns every upstream server.
func (db *DB) ListUpstreams(ctx context.Context) ([]UpstreamRow, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, address, protocol, timeout_ms, enabled
		FROM upstream_servers ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list upstreams: %w", err)
	}
	defer rows.Close()

	var out []UpstreamRow
	for rows.Next() {
		var u UpstreamRow
		if err := rows.Scan(&u.ID, &u.Name, &u.Address, &u.Protocol, &u.TimeoutMs, &u.Enabled); err != nil {
			return nil, fmt.Errorf("store: scan upstream: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LoadPoolServers reads every upstream server and converts it to the
// in-memory shape upstream.Pool.LoadServers expects.
func (db *DB) LoadPoolServers(ctx context.Context) ([]upstream.Server, error) {
	rows, err := db.ListUpstreams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]upstream.Server, 0, len(rows))
	for _, u := range rows {
		proto, ok := protocolFromString(u.Protocol)
		if !ok {
			continue
		}
		out = append(out, upstream.Server{
			ID:       u.ID,
			Name:     u.Name,
			Address:  u.Address,
			Protocol: proto,
			Timeout:  time.Duration(u.TimeoutMs) * time.Millisecond,
			Enabled:  u.Enabled,
		})
	}
	return out, nil
}

func protocolFromString(s string) (upstream.Protocol, bool) {
	switch s {
	case "udp":
		return upstream.Udp, true
	case "dot":
		return upstream.Dot, true
	case "doh":
		return upstream.Doh, true
	case "doq":
		return upstream.Doq, true
	case "doh3":
		return upstream.Doh3, true
	default:
		return 0, false
	}
}

// CreateUpstream inserts a new upstream server and returns its id.
func (db *DB) CreateUpstream(ctx context.Context, u UpstreamRow) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO upstream_servers (name, address, protocol, timeout_ms, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, u.Name, u.Address, u.Protocol, u.TimeoutMs, u.Enabled)
	if err != nil {
		return 0, fmt.Errorf("store: create upstream: %w", err)
	}
	return res.LastInsertId()
}

// UpdateUpstream overwrites an existing upstream server by id.
func (db *DB) UpdateUpstream(ctx context.Context, u UpstreamRow) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE upstream_servers SET name = ?, address = ?, protocol = ?, timeout_ms = ?,
			enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, u.Name, u.Address, u.Protocol, u.TimeoutMs, u.Enabled, u.ID)
	if err != nil {
		return fmt.Errorf("store: update upstream: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteUpstream removes an upstream server by id.
func (db *DB) DeleteUpstream(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM upstream_servers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete upstream: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}
