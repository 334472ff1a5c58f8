package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	"github.com/fluxdns/fluxdns/internal/rewrite"
)

// Rule is a persisted rewrite_rules row, independent of the in-memory
// rewrite.Rule representation the resolution core consumes.
type Rule struct {
	ID          int64
	Pattern     string
	MatchType   string // "exact" | "wildcard" | "regex"
	ActionType  string // "block" | "map_ip" | "map_domain"
	ActionValue string
	Priority    int32
	Enabled     bool
	Description string
}

// ListRules returns every rewrite rule ordered by priority desc, id asc
//.
func (db *DB) ListRules(ctx context.Context) ([]Rule, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, pattern, match_type, action_type, COALESCE(action_value, ''),
			priority, enabled, COALESCE(description, '')
		FROM rewrite_rules ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.Pattern, &r.MatchType, &r.ActionType, &r.ActionValue,
			&r.Priority, &r.Enabled, &r.Description); err != nil {
			return nil, fmt.Errorf("store: scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadEngineRules reads every rewrite rule and converts it into the
// in-memory shape rewrite.Engine.LoadRules expects, ready for the
// resolution core to reload after an admin mutation.
func (db *DB) LoadEngineRules(ctx context.Context) ([]rewrite.Rule, error) {
	rows, err := db.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]rewrite.Rule, 0, len(rows))
	for _, r := range rows {
		engineRule, ok := toEngineRule(r)
		if !ok {
			continue
		}
		out = append(out, engineRule)
	}
	return out, nil
}

func toEngineRule(r Rule) (rewrite.Rule, bool) {
	var matchType rewrite.MatchType
	switch r.MatchType {
	case "exact":
		matchType = rewrite.Exact
	case "wildcard":
		matchType = rewrite.Wildcard
	case "regex":
		matchType = rewrite.Regex
	default:
		return rewrite.Rule{}, false
	}

	var action rewrite.Action
	switch r.ActionType {
	case "block":
		action = rewrite.Action{Kind: rewrite.ActionBlock}
	case "map_ip":
		action = rewrite.Action{Kind: rewrite.ActionMapToIP, IP: net.ParseIP(r.ActionValue)}
	case "map_domain":
		action = rewrite.Action{Kind: rewrite.ActionMapToDomain, Domain: r.ActionValue}
	default:
		return rewrite.Rule{}, false
	}

	return rewrite.Rule{
		ID:        r.ID,
		Pattern:   r.Pattern,
		MatchType: matchType,
		Action:    action,
		Priority:  r.Priority,
		Enabled:   r.Enabled,
	}, true
}

// CreateRule inserts a new rewrite rule and returns its id.
func (db *DB) CreateRule(ctx context.Context, r Rule) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO rewrite_rules (pattern, match_type, action_type, action_value, priority, enabled, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, r.Pattern, r.MatchType, r.ActionType, nullIfEmpty(r.ActionValue), r.Priority, r.Enabled, nullIfEmpty(r.Description))
	if err != nil {
		return 0, fmt.Errorf("store: create rule: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRule overwrites an existing rewrite rule by id.
func (db *DB) UpdateRule(ctx context.Context, r Rule) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE rewrite_rules SET pattern = ?, match_type = ?, action_type = ?, action_value = ?,
			priority = ?, enabled = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.Pattern, r.MatchType, r.ActionType, nullIfEmpty(r.ActionValue), r.Priority, r.Enabled, nullIfEmpty(r.Description), r.ID)
	if err != nil {
		return fmt.Errorf("store: update rule: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteRule removes a rewrite rule by id.
func (db *DB) DeleteRule(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM rewrite_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete rule: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
