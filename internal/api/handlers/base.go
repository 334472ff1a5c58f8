// Package handlers implements the REST API endpoint handlers for
// FluxDNS's admin server.
//
// @title FluxDNS Management API
// @version 1.0
// @description REST API for managing FluxDNS records, rewrite rules, upstreams, listeners, and runtime settings.
//
// @contact.name FluxDNS
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxdns/fluxdns/internal/api/authsvc"
	"github.com/fluxdns/fluxdns/internal/listener"
	"github.com/fluxdns/fluxdns/internal/llmagent"
	"github.com/fluxdns/fluxdns/internal/querylog"
	"github.com/fluxdns/fluxdns/internal/resolver"
	"github.com/fluxdns/fluxdns/internal/rewrite"
	"github.com/fluxdns/fluxdns/internal/statscache"
	"github.com/fluxdns/fluxdns/internal/store"
	"github.com/fluxdns/fluxdns/internal/upstream"
)

// Store is the subset of internal/store's repository facade the admin
// API consumes. Defined narrowly here (rather than importing *store.DB
// directly) so handlers can be tested against a fake.
type Store interface {
	ListRecords(ctx context.Context) ([]store.Record, error)
	CreateRecord(ctx context.Context, r store.Record) (int64, error)
	UpdateRecord(ctx context.Context, r store.Record) error
	DeleteRecord(ctx context.Context, id int64) error

	ListRules(ctx context.Context) ([]store.Rule, error)
	LoadEngineRules(ctx context.Context) ([]rewrite.Rule, error)
	CreateRule(ctx context.Context, r store.Rule) (int64, error)
	UpdateRule(ctx context.Context, r store.Rule) error
	DeleteRule(ctx context.Context, id int64) error

	ListUpstreams(ctx context.Context) ([]store.UpstreamRow, error)
	LoadPoolServers(ctx context.Context) ([]upstream.Server, error)
	CreateUpstream(ctx context.Context, u store.UpstreamRow) (int64, error)
	UpdateUpstream(ctx context.Context, u store.UpstreamRow) error
	DeleteUpstream(ctx context.Context, id int64) error

	ListListeners(ctx context.Context) ([]listener.Config, error)
	GetListener(ctx context.Context, protocol listener.Protocol) (listener.Config, error)
	UpdateListener(ctx context.Context, c listener.Config) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	GetAllConfig(ctx context.Context) (map[string]string, error)
	SetDisabledRecordTypes(ctx context.Context, names []string) error

	ListQueryLogs(ctx context.Context, f store.QueryLogFilter) ([]store.QueryLogRow, error)
	DeleteQueryLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Handler contains the dependencies every admin endpoint reads or
// mutates: the repository facade, the live listener manager, the
// resolution core's shared cache/rewrite engine/upstream pool, the
// stats cache, the query log, and the auth service issuing/verifying
// tokens.
type Handler struct {
	Store     Store
	Listeners *listener.Manager
	Resolver  *resolver.Resolver
	Pool      *upstream.Pool
	Stats     *statscache.Cache
	QueryLog  *querylog.Logger
	Auth      *authsvc.Service
	Agent     *llmagent.Agent

	logger    *slog.Logger
	startTime time.Time
}

// New constructs a Handler. Any dependency may be nil in a test harness
// that only exercises a handler not reaching it.
func New(store Store, listeners *listener.Manager, res *resolver.Resolver, pool *upstream.Pool, stats *statscache.Cache, ql *querylog.Logger, auth *authsvc.Service, logger *slog.Logger) *Handler {
	return &Handler{
		Store:     store,
		Listeners: listeners,
		Resolver:  res,
		Pool:      pool,
		Stats:     stats,
		QueryLog:  ql,
		Auth:      auth,
		logger:    logger,
		startTime: time.Now(),
	}
}

// WithAgent attaches the optional LLM admin agent, enabling POST
// /agent/chat. Callers leave this unset when no LLM is configured.
func (h *Handler) WithAgent(a *llmagent.Agent) *Handler {
	h.Agent = a
	return h
}
