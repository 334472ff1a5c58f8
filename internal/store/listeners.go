package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fluxdns/fluxdns/internal/listener"
)

// ListListeners implements listener.Store: returns the server_listeners
// configuration for every protocol.
func (db *DB) ListListeners(ctx context.Context) ([]listener.Config, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT protocol, enabled, bind_address, port, COALESCE(tls_cert, ''), COALESCE(tls_key, '')
		FROM server_listeners
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list listeners: %w", err)
	}
	defer rows.Close()

	var out []listener.Config
	for rows.Next() {
		var c listener.Config
		var proto string
		if err := rows.Scan(&proto, &c.Enabled, &c.BindAddress, &c.Port, &c.TLSCert, &c.TLSKey); err != nil {
			return nil, fmt.Errorf("store: scan listener: %w", err)
		}
		c.Protocol = listener.Protocol(proto)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetListener implements listener.Store for a single protocol.
func (db *DB) GetListener(ctx context.Context, protocol listener.Protocol) (listener.Config, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var c listener.Config
	c.Protocol = protocol
	err := db.conn.QueryRowContext(ctx, `
		SELECT enabled, bind_address, port, COALESCE(tls_cert, ''), COALESCE(tls_key, '')
		FROM server_listeners WHERE protocol = ?
	`, string(protocol)).Scan(&c.Enabled, &c.BindAddress, &c.Port, &c.TLSCert, &c.TLSKey)
	if err == sql.ErrNoRows {
		return listener.Config{}, ErrNotFound
	}
	if err != nil {
		return listener.Config{}, fmt.Errorf("store: get listener %s: %w", protocol, err)
	}
	return c, nil
}

// SetListenerEnabled implements listener.Store: toggles a protocol's
// enabled flag, used both by admin mutation and by the manager's
// revert-on-bind-failure policy.
func (db *DB) SetListenerEnabled(ctx context.Context, protocol listener.Protocol, enabled bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE server_listeners SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE protocol = ?
	`, enabled, string(protocol))
	if err != nil {
		return fmt.Errorf("store: set listener enabled %s: %w", protocol, err)
	}
	return rowsAffectedOrNotFound(res)
}

// UpdateListener overwrites bind address, port, and TLS material for a
// protocol's listener configuration (admin mutation; does not itself
// start or stop anything).
func (db *DB) UpdateListener(ctx context.Context, c listener.Config) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE server_listeners SET bind_address = ?, port = ?, tls_cert = ?, tls_key = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE protocol = ?
	`, c.BindAddress, c.Port, nullIfEmpty(c.TLSCert), nullIfEmpty(c.TLSKey), string(c.Protocol))
	if err != nil {
		return fmt.Errorf("store: update listener %s: %w", c.Protocol, err)
	}
	return rowsAffectedOrNotFound(res)
}
