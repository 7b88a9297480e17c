// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for values that would make the engine
// misbehave at runtime. It returns the first problem found.
func (c *Config) Validate() error {
	providers := []struct {
		name string
		cfg  *ProviderConfig
	}{
		{"congress", &c.Congress},
		{"fec", &c.FEC},
		{"house_clerk", &c.HouseClerk},
		{"senate_gov", &c.SenateGov},
	}

	for _, p := range providers {
		if err := p.cfg.validate(); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}

	jobs := []struct {
		name string
		cfg  *JobConfig
	}{
		{"members", &c.Jobs.Members},
		{"bills", &c.Jobs.Bills},
		{"votes", &c.Jobs.Votes},
		{"finance", &c.Jobs.Finance},
	}

	for _, j := range jobs {
		if err := j.cfg.validate(); err != nil {
			return fmt.Errorf("jobs.%s: %w", j.name, err)
		}
	}

	if c.Jobs.CheckpointEvery < 1 {
		return fmt.Errorf("jobs.checkpoint_every must be >= 1, got %d", c.Jobs.CheckpointEvery)
	}
	if c.Jobs.Workers < 1 {
		return fmt.Errorf("jobs.workers must be >= 1, got %d", c.Jobs.Workers)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}

	return nil
}

func (p *ProviderConfig) validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if _, err := url.Parse(p.BaseURL); err != nil {
		return fmt.Errorf("base_url is not a valid URL: %w", err)
	}
	if p.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be >= 1, got %d", p.MaxConcurrency)
	}
	if p.MinDelayBetweenRequests < 0 {
		return fmt.Errorf("min_delay_between_requests must not be negative")
	}
	if p.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if p.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must not be negative")
	}
	if p.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry_base_delay must be positive")
	}
	if p.RetryMaxDelay < p.RetryBaseDelay {
		return fmt.Errorf("retry_max_delay must be >= retry_base_delay")
	}
	if p.RetryJitterPercent < 0 || p.RetryJitterPercent > 100 {
		return fmt.Errorf("retry_jitter_percent must be 0-100, got %d", p.RetryJitterPercent)
	}
	return nil
}

func (j *JobConfig) validate() error {
	if !j.Enabled {
		return nil
	}
	if j.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if j.Budget <= 0 {
		return fmt.Errorf("budget must be positive")
	}
	// A run must never outlive its lease.
	if j.MaxDuration < j.Budget {
		return fmt.Errorf("max_duration (%s) must be >= budget (%s)", j.MaxDuration, j.Budget)
	}
	if j.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", j.BatchSize)
	}
	return nil
}
