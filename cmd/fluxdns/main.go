// Command fluxdns runs the FluxDNS forwarder: the DNS listeners, the
// resolution core, and the admin REST API, all sharing one SQLite-backed
// configuration store.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fluxdns/fluxdns/internal/api"
	"github.com/fluxdns/fluxdns/internal/api/authsvc"
	"github.com/fluxdns/fluxdns/internal/api/handlers"
	"github.com/fluxdns/fluxdns/internal/cache"
	"github.com/fluxdns/fluxdns/internal/config"
	"github.com/fluxdns/fluxdns/internal/helpers"
	"github.com/fluxdns/fluxdns/internal/ingress"
	"github.com/fluxdns/fluxdns/internal/listener"
	"github.com/fluxdns/fluxdns/internal/llmagent"
	"github.com/fluxdns/fluxdns/internal/logging"
	"github.com/fluxdns/fluxdns/internal/querylog"
	"github.com/fluxdns/fluxdns/internal/resolver"
	"github.com/fluxdns/fluxdns/internal/rewrite"
	"github.com/fluxdns/fluxdns/internal/statscache"
	"github.com/fluxdns/fluxdns/internal/store"
	"github.com/fluxdns/fluxdns/internal/strategy"
	"github.com/fluxdns/fluxdns/internal/upstream"
)

const defaultJWTSecretConfigKey = "jwt_secret"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values, applied on top of
// whatever config.Load resolved from file/environment.
type cliFlags struct {
	configPath string
	dbPath     string
	webPort    int
	jsonLogs   bool
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&f.dbPath, "db", "", "Override database_url")
	flag.IntVar(&f.webPort, "port", 0, "Override admin web_port")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.dbPath != "" {
		cfg.DatabaseURL = f.dbPath
	}
	if f.webPort != 0 {
		cfg.WebPort = f.webPort
	}
	if f.debug {
		cfg.LogLevel = "DEBUG"
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.LogLevel,
		Structured:       flags.jsonLogs,
		StructuredFormat: "json",
		IncludePID:       true,
	})
	logger.Info("fluxdns starting", "database", cfg.DatabaseURL, "web_port", cfg.WebPort)

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	jwtSecret, err := loadOrCreateJWTSecret(ctx, db)
	if err != nil {
		return fmt.Errorf("load jwt secret: %w", err)
	}

	rewriteEngine := rewrite.New()
	if err := reloadRewriteEngine(ctx, db, rewriteEngine); err != nil {
		return fmt.Errorf("load rewrite rules: %w", err)
	}

	pool := upstream.NewPool()
	if err := reloadUpstreamPool(ctx, db, pool); err != nil {
		return fmt.Errorf("load upstream servers: %w", err)
	}

	cacheCfg, err := loadCacheConfig(ctx, db)
	if err != nil {
		return fmt.Errorf("load cache config: %w", err)
	}
	respCache := cache.New(cacheCfg)

	mode, err := loadQueryStrategy(ctx, db)
	if err != nil {
		return fmt.Errorf("load query strategy: %w", err)
	}
	dispatcher := &strategy.Dispatcher{Pool: pool, Mode: mode}

	ql := querylog.New(db, logger)
	defer ql.Stop()
	go querylog.RunRetentionSweep(ctx, db, logger)

	res := &resolver.Resolver{
		Cache:         respCache,
		Rewrite:       rewriteEngine,
		Records:       db,
		Dispatcher:    dispatcher,
		DisabledTypes: db,
		QueryLog:      ql,
	}

	ingressHandler := &ingress.Handler{Logger: logger, Resolver: res}
	listenerMgr := listener.NewManager(db, ingressHandler, logger)
	if err := listenerMgr.StartAllEnabled(ctx); err != nil {
		return fmt.Errorf("start listeners: %w", err)
	}
	defer listenerMgr.StopAll()

	statsCache, err := seedStatsCache(ctx, db)
	if err != nil {
		return fmt.Errorf("seed stats cache: %w", err)
	}

	auth := authsvc.New(cfg.AdminUsername, cfg.AdminPassword, jwtSecret)
	h := handlers.New(db, listenerMgr, res, pool, statsCache, ql, auth, logger)

	llmCfg := llmagent.Config{BaseURL: cfg.LLMBaseURL, APIKey: cfg.LLMAPIKey, Model: cfg.LLMModel}
	if llmCfg.Configured() {
		h = h.WithAgent(llmagent.New(llmCfg, db, respCache))
		logger.Info("llm admin agent enabled", "model", cfg.LLMModel)
	}

	apiSrv := api.New(cfg, h, logger)
	logger.Info("admin API starting", "addr", apiSrv.Addr())

	go func() {
		if serveErr := apiSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("admin API server error", "err", serveErr)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin API shutdown error", "err", err)
	}

	return nil
}

// loadOrCreateJWTSecret returns a stable HMAC secret for authsvc,
// generating and persisting one on first run so tokens survive restarts.
func loadOrCreateJWTSecret(ctx context.Context, db *store.DB) ([]byte, error) {
	existing, err := db.GetConfig(ctx, defaultJWTSecretConfigKey)
	if err == nil && existing != "" {
		return []byte(existing), nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	encoded := fmt.Sprintf("%x", secret)
	if err := db.SetConfig(ctx, defaultJWTSecretConfigKey, encoded); err != nil {
		return nil, err
	}
	return []byte(encoded), nil
}

func reloadRewriteEngine(ctx context.Context, db *store.DB, engine *rewrite.Engine) error {
	rules, err := db.LoadEngineRules(ctx)
	if err != nil {
		return err
	}
	engine.LoadRules(rules)
	return nil
}

func reloadUpstreamPool(ctx context.Context, db *store.DB, pool *upstream.Pool) error {
	servers, err := db.LoadPoolServers(ctx)
	if err != nil {
		return err
	}
	pool.LoadServers(servers)
	return nil
}

func loadCacheConfig(ctx context.Context, db *store.DB) (cache.Config, error) {
	ttl, err := getConfigInt(ctx, db, store.ConfigKeyCacheDefaultTTL, 300)
	if err != nil {
		return cache.Config{}, err
	}
	maxEntries, err := getConfigInt(ctx, db, store.ConfigKeyCacheMaxEntries, 10000)
	if err != nil {
		return cache.Config{}, err
	}
	// Clamp against a hand-edited or corrupted system_config row rather
	// than letting a bogus TTL seconds value overflow the duration math.
	ttlSeconds := helpers.ClampIntToUint32(ttl)
	return cache.Config{DefaultTTL: time.Duration(ttlSeconds) * time.Second, MaxEntries: maxEntries}, nil
}

func loadQueryStrategy(ctx context.Context, db *store.DB) (strategy.Mode, error) {
	raw, err := db.GetConfig(ctx, store.ConfigKeyQueryStrategy)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return strategy.Concurrent, nil
		}
		return 0, err
	}
	mode, ok := strategy.ModeFromString(raw)
	if !ok {
		return strategy.Concurrent, nil
	}
	return mode, nil
}

func getConfigInt(ctx context.Context, db *store.DB, key string, fallback int) (int, error) {
	raw, err := db.GetConfig(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fallback, nil
		}
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback, nil
	}
	return v, nil
}

func seedStatsCache(ctx context.Context, db *store.DB) (*statscache.Cache, error) {
	now := time.Now()
	total, err := db.CountQueriesSince(ctx, time.Unix(0, 0))
	if err != nil {
		return nil, err
	}
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := db.CountQueriesSince(ctx, todayStart)
	if err != nil {
		return nil, err
	}
	return statscache.New(total, 0, today, now), nil
}
