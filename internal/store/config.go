package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// System config keys stored in the system_config table.
const (
	ConfigKeyDisabledRecordTypes = "disabled_record_types"
	ConfigKeyQueryStrategy       = "query_strategy"
	ConfigKeyCacheDefaultTTL     = "cache_default_ttl"
	ConfigKeyCacheMaxEntries     = "cache_max_entries"
	ConfigKeyLogRetentionDays    = "log_retention_days"
	ConfigKeyLogAutoCleanup      = "log_auto_cleanup_enabled"
)

// GetConfig retrieves a system_config value.
func (db *DB) GetConfig(ctx context.Context, key string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM system_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: get config %s: %w", key, err)
	}
	return value, nil
}

// SetConfig upserts a system_config value.
func (db *DB) SetConfig(ctx context.Context, key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO system_config (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: set config %s: %w", key, err)
	}
	return nil
}

// GetAllConfig returns every system_config key/value pair.
func (db *DB) GetAllConfig(ctx context.Context) (map[string]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, "SELECT key, value FROM system_config ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("store: list config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("store: scan config row: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// disabledRecordTypes parses ConfigKeyDisabledRecordTypes (a JSON array
// of type name strings) into a membership set.
func (db *DB) disabledRecordTypes(ctx context.Context) (map[string]struct{}, error) {
	raw, err := db.GetConfig(ctx, ConfigKeyDisabledRecordTypes)
	if err != nil {
		if err == ErrNotFound {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", ConfigKeyDisabledRecordTypes, err)
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

// SetDisabledRecordTypes persists the disabled-type list as JSON.
func (db *DB) SetDisabledRecordTypes(ctx context.Context, names []string) error {
	b, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("store: marshal disabled record types: %w", err)
	}
	return db.SetConfig(ctx, ConfigKeyDisabledRecordTypes, string(b))
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
