package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/resolver"
)

// Record is a persisted local authoritative answer (dns_records).
type Record struct {
	ID        int64
	Name      string
	Type      dnswire.RecordType
	Value     string
	TTL       uint32
	Priority  uint16
	Enabled   bool
}

// ListRecords returns every record, most recently created first.
func (db *DB) ListRecords(ctx context.Context) ([]Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, record_type, value, ttl, priority, enabled
		FROM dns_records ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// MatchingRecords implements resolver.LocalRecordStore: returns enabled
// records for name and recordType. When no record has exactly that
// name, it returns the wildcard "*.base" entries for which name is a
// strict subdomain of base (the resolver itself applies the
// wildcard-name substitution).
func (db *DB) MatchingRecords(ctx context.Context, name string, recordType dnswire.RecordType) ([]resolver.LocalRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, record_type, value, ttl, priority
		FROM dns_records
		WHERE enabled = 1 AND record_type = ? AND name = ?
	`, recordType.String(), name)
	if err != nil {
		return nil, fmt.Errorf("store: matching records: %w", err)
	}
	defer rows.Close()

	out, err := scanLocalRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		return out, nil
	}

	wildcardRows, err := db.conn.QueryContext(ctx, `
		SELECT name, record_type, value, ttl, priority
		FROM dns_records
		WHERE enabled = 1 AND record_type = ? AND name LIKE '*.%'
	`, recordType.String())
	if err != nil {
		return nil, fmt.Errorf("store: matching wildcard records: %w", err)
	}
	defer wildcardRows.Close()
	candidates, err := scanLocalRecords(wildcardRows)
	if err != nil {
		return nil, err
	}
	matched := candidates[:0]
	for _, lr := range candidates {
		suffix := dnswire.NormalizeName(lr.Name)[1:] // "*.lan" -> ".lan"
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			matched = append(matched, lr)
		}
	}
	return matched, nil
}

// IsDisabled implements resolver.DisabledTypes by consulting the
// disabled_record_types system_config entry.
func (db *DB) IsDisabled(t dnswire.RecordType) bool {
	disabled, err := db.disabledRecordTypes(context.Background())
	if err != nil {
		return false
	}
	_, ok := disabled[t.String()]
	return ok
}

// CreateRecord inserts a new record and returns its id.
func (db *DB) CreateRecord(ctx context.Context, r Record) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO dns_records (name, record_type, value, ttl, priority, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, r.Name, r.Type.String(), r.Value, r.TTL, r.Priority, r.Enabled)
	if err != nil {
		return 0, fmt.Errorf("store: create record: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRecord overwrites an existing record by id.
func (db *DB) UpdateRecord(ctx context.Context, r Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE dns_records SET name = ?, record_type = ?, value = ?, ttl = ?,
			priority = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.Name, r.Type.String(), r.Value, r.TTL, r.Priority, r.Enabled, r.ID)
	if err != nil {
		return fmt.Errorf("store: update record: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteRecord removes a record by id.
func (db *DB) DeleteRecord(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM dns_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete record: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func scanRecords(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var typeName string
		if err := rows.Scan(&r.ID, &r.Name, &typeName, &r.Value, &r.TTL, &r.Priority, &r.Enabled); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		r.Type, _ = dnswire.RecordTypeFromString(typeName)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanLocalRecords(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]resolver.LocalRecord, error) {
	var out []resolver.LocalRecord
	for rows.Next() {
		var lr resolver.LocalRecord
		var typeName string
		if err := rows.Scan(&lr.Name, &typeName, &lr.Value, &lr.TTL, &lr.Priority); err != nil {
			return nil, fmt.Errorf("store: scan local record: %w", err)
		}
		lr.Type, _ = dnswire.RecordTypeFromString(typeName)
		out = append(out, lr)
	}
	return out, rows.Err()
}
