// Package config loads FluxDNS's process bootstrap configuration using
// Viper. Runtime DNS settings (listeners, upstreams, cache, strategy,
// disabled types) live in the store, not here; this package
// only covers the small set of settings needed before the store can
// even be opened.
//
// Environment variables use the FLUXDNS_ prefix and underscore-separated
// keys, e.g. FLUXDNS_WEB_PORT -> web_port, FLUXDNS_DATABASE_URL ->
// database_url.
package config

// Config is the root configuration structure.
type Config struct {
	WebPort          int    `mapstructure:"web_port"`
	DatabaseURL      string `mapstructure:"database_url"`
	AdminUsername    string `mapstructure:"admin_username"`
	AdminPassword    string `mapstructure:"admin_password"`
	LogPath          string `mapstructure:"log_path"`
	LogLevel         string `mapstructure:"log_level"`
	LogMaxSize       int    `mapstructure:"log_max_size"`
	LogRetentionDays int    `mapstructure:"log_retention_days"`

	// LLM* configure the optional admin agent (internal/llmagent). All
	// three must be set for it to be considered configured; otherwise
	// the agent is never constructed.
	LLMBaseURL string `mapstructure:"llm_base_url"`
	LLMAPIKey  string `mapstructure:"llm_api_key"`
	LLMModel   string `mapstructure:"llm_model"`
}

// Load loads configuration from an optional YAML file with FLUXDNS_*
// environment variable overrides. This is the main entry point for
// loading configuration.
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
