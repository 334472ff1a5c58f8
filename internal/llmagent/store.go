package llmagent

import (
	"context"

	"github.com/fluxdns/fluxdns/internal/cache"
	"github.com/fluxdns/fluxdns/internal/store"
)

// Store is the subset of the repository facade the agent's functions
// call into. It overlaps with internal/api/handlers.Store by design —
// both sit in front of the same *store.DB.
type Store interface {
	ListRecords(ctx context.Context) ([]store.Record, error)
	CreateRecord(ctx context.Context, r store.Record) (int64, error)
	DeleteRecord(ctx context.Context, id int64) error

	ListRules(ctx context.Context) ([]store.Rule, error)
	CreateRule(ctx context.Context, r store.Rule) (int64, error)
	DeleteRule(ctx context.Context, id int64) error

	ListUpstreams(ctx context.Context) ([]store.UpstreamRow, error)

	GetAllConfig(ctx context.Context) (map[string]string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// Cache is the subset of the live answer cache the agent can act on.
type Cache interface {
	Stats() cache.Stats
	Clear()
}
