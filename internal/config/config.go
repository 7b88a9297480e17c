// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

// Package config provides layered configuration for CapitolSync using Koanf v2.
//
// Configuration is loaded from three layers, highest priority last:
//
//  1. Built-in defaults (struct provider)
//  2. Optional YAML config file (CONFIG_PATH or a default search path)
//  3. Environment variables (CONGRESS_API_KEY -> congress.api_key)
package config

import "time"

// Config is the root configuration for the CapitolSync server.
type Config struct {
	Congress   ProviderConfig `koanf:"congress"`    // Congress REST/JSON API (members, bills)
	FEC        ProviderConfig `koanf:"fec"`         // Campaign-finance REST/JSON API
	HouseClerk ProviderConfig `koanf:"house_clerk"` // House roll-call vote XML feed
	SenateGov  ProviderConfig `koanf:"senate_gov"`  // Senate roll-call vote XML feed
	Jobs       JobsConfig     `koanf:"jobs"`
	Database   DatabaseConfig `koanf:"database"`
	Server     ServerConfig   `koanf:"server"`
	Logging    LoggingConfig  `koanf:"logging"`
}

// ProviderConfig holds connection, rate-limit, and retry settings for one
// upstream provider. Every outbound request to the provider flows through
// these limits.
type ProviderConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`

	// MaxConcurrency caps in-flight requests to this provider.
	MaxConcurrency int `koanf:"max_concurrency"`

	// MinDelayBetweenRequests is the minimum spacing between request
	// dispatches to this provider, measured dispatch to dispatch.
	MinDelayBetweenRequests time.Duration `koanf:"min_delay_between_requests"`

	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RetryAttempts is the maximum number of retries after the first attempt.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryBaseDelay and RetryMaxDelay bound the exponential backoff:
	// attempt n waits min(base*2^n, max), plus jitter.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay"`

	// RetryJitterPercent adds up to this percentage of the computed delay
	// as uniform random jitter (0-100).
	RetryJitterPercent int `koanf:"retry_jitter_percent"`
}

// JobConfig holds scheduling and batching settings for one sync job.
type JobConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval between scheduled runs.
	Interval time.Duration `koanf:"interval"`

	// Budget is the per-invocation wall-clock ceiling. A run winds down
	// cleanly once 85% of the budget has elapsed.
	Budget time.Duration `koanf:"budget"`

	// MaxDuration is the lease horizon (lock_until = now + MaxDuration).
	// Must exceed Budget so a live run never loses its lease.
	MaxDuration time.Duration `koanf:"max_duration"`

	// BatchSize is the upstream page size.
	BatchSize int `koanf:"batch_size"`
}

// JobsConfig groups per-job settings and engine-wide sync tuning.
type JobsConfig struct {
	// SyncOnStartup triggers one run of every enabled job at process start.
	SyncOnStartup bool `koanf:"sync_on_startup"`

	// CheckpointEvery is how many pages to process between cursor writes.
	// Batching checkpoint writes bounds write amplification.
	CheckpointEvery int `koanf:"checkpoint_every"`

	// Workers is the worker count for the bounded-parallel batch strategy.
	Workers int `koanf:"workers"`

	// ChunkDelay is the sleep between chunks in the sequential strategies.
	ChunkDelay time.Duration `koanf:"chunk_delay"`

	Members JobConfig `koanf:"members"`
	Bills   JobConfig `koanf:"bills"`
	Votes   JobConfig `koanf:"votes"`
	Finance JobConfig `koanf:"finance"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultProvider returns provider defaults tuned for public-data APIs:
// modest concurrency, one-second spacing, and patient retries.
func defaultProvider(baseURL string) ProviderConfig {
	return ProviderConfig{
		BaseURL:                 baseURL,
		MaxConcurrency:          2,
		MinDelayBetweenRequests: time.Second,
		RequestTimeout:          30 * time.Second,
		RetryAttempts:           5,
		RetryBaseDelay:          time.Second,
		RetryMaxDelay:           60 * time.Second,
		RetryJitterPercent:      20,
	}
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Congress:   defaultProvider("https://api.congress.gov/v3"),
		FEC:        defaultProvider("https://api.open.fec.gov/v1"),
		HouseClerk: defaultProvider("https://clerk.house.gov"),
		SenateGov:  defaultProvider("https://www.senate.gov"),
		Jobs: JobsConfig{
			SyncOnStartup:   false,
			CheckpointEvery: 1,
			Workers:         4,
			ChunkDelay:      250 * time.Millisecond,
			Members: JobConfig{
				Enabled:     true,
				Interval:    24 * time.Hour,
				Budget:      5 * time.Minute,
				MaxDuration: 10 * time.Minute,
				BatchSize:   250,
			},
			Bills: JobConfig{
				Enabled:     true,
				Interval:    6 * time.Hour,
				Budget:      10 * time.Minute,
				MaxDuration: 20 * time.Minute,
				BatchSize:   250,
			},
			Votes: JobConfig{
				Enabled:     true,
				Interval:    6 * time.Hour,
				Budget:      10 * time.Minute,
				MaxDuration: 20 * time.Minute,
				BatchSize:   50,
			},
			Finance: JobConfig{
				Enabled:     true,
				Interval:    24 * time.Hour,
				Budget:      10 * time.Minute,
				MaxDuration: 20 * time.Minute,
				BatchSize:   100,
			},
		},
		Database: DatabaseConfig{
			Path:      "/data/capitolsync.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
