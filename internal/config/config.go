// Package config provides configuration loading and validation for
// FluxDNS.
//
// Configuration is loaded with the following priority (highest to
// lowest):
//  1. Environment variables (FLUXDNS_* prefix)
//  2. YAML config file (if specified)
//  3. Hardcoded defaults
//
// All configuration is validated during Load() to ensure correctness
// early.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLUXDNS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("web_port", 8080)
	v.SetDefault("database_url", "fluxdns.db")
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "")
	v.SetDefault("log_path", "")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_max_size", 100)
	v.SetDefault("log_retention_days", 30)
	v.SetDefault("llm_base_url", "")
	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_model", "")
}

func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		WebPort:          v.GetInt("web_port"),
		DatabaseURL:      v.GetString("database_url"),
		AdminUsername:    v.GetString("admin_username"),
		AdminPassword:    v.GetString("admin_password"),
		LogPath:          v.GetString("log_path"),
		LogLevel:         strings.ToUpper(v.GetString("log_level")),
		LogMaxSize:       v.GetInt("log_max_size"),
		LogRetentionDays: v.GetInt("log_retention_days"),
		LLMBaseURL:       v.GetString("llm_base_url"),
		LLMAPIKey:        v.GetString("llm_api_key"),
		LLMModel:         v.GetString("llm_model"),
	}

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func normalizeConfig(cfg *Config) error {
	if cfg.WebPort <= 0 || cfg.WebPort > 65535 {
		return errors.New("web_port must be 1..65535")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database_url must not be empty")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.LogMaxSize <= 0 {
		cfg.LogMaxSize = 100
	}
	if cfg.LogRetentionDays <= 0 {
		cfg.LogRetentionDays = 30
	}
	return nil
}
