// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/capitolsync/config.yaml",
	"/etc/capitolsync/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadWithKoanf loads configuration from defaults, an optional YAML file, and
// environment variables, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are dropped so random environment noise never pollutes
// the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Congress API
		"congress_base_url":        "congress.base_url",
		"congress_api_key":         "congress.api_key",
		"congress_max_concurrency": "congress.max_concurrency",
		"congress_min_delay":       "congress.min_delay_between_requests",
		"congress_request_timeout": "congress.request_timeout",
		"congress_retry_attempts":  "congress.retry_attempts",

		// FEC API
		"fec_base_url":        "fec.base_url",
		"fec_api_key":         "fec.api_key",
		"fec_max_concurrency": "fec.max_concurrency",
		"fec_min_delay":       "fec.min_delay_between_requests",
		"fec_request_timeout": "fec.request_timeout",
		"fec_retry_attempts":  "fec.retry_attempts",

		// Roll-call vote feeds
		"house_clerk_base_url":  "house_clerk.base_url",
		"house_clerk_min_delay": "house_clerk.min_delay_between_requests",
		"senate_gov_base_url":   "senate_gov.base_url",
		"senate_gov_min_delay":  "senate_gov.min_delay_between_requests",

		// Job scheduling
		"sync_on_startup":       "jobs.sync_on_startup",
		"sync_checkpoint_every": "jobs.checkpoint_every",
		"sync_workers":          "jobs.workers",
		"sync_chunk_delay":      "jobs.chunk_delay",

		"members_sync_enabled":  "jobs.members.enabled",
		"members_sync_interval": "jobs.members.interval",
		"members_sync_budget":   "jobs.members.budget",

		"bills_sync_enabled":    "jobs.bills.enabled",
		"bills_sync_interval":   "jobs.bills.interval",
		"bills_sync_budget":     "jobs.bills.budget",
		"bills_sync_batch_size": "jobs.bills.batch_size",

		"votes_sync_enabled":  "jobs.votes.enabled",
		"votes_sync_interval": "jobs.votes.interval",
		"votes_sync_budget":   "jobs.votes.budget",

		"finance_sync_enabled":    "jobs.finance.enabled",
		"finance_sync_interval":   "jobs.finance.interval",
		"finance_sync_budget":     "jobs.finance.budget",
		"finance_sync_batch_size": "jobs.finance.batch_size",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Server
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_requests",
		"rate_limit_window":   "server.rate_limit_window",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped
	return ""
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
