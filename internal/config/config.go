// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

// Package config provides centralized configuration for Punchsync, loaded
// via Koanf v2 with layered sources: built-in defaults, an optional YAML
// config file, and environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Dedup    DedupConfig    `koanf:"dedup"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment variables:
//   - DATABASE_PATH: database file path (default: data/punchsync.db)
//   - DATABASE_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - DATABASE_SEED: insert development seed rows on startup (default: false)
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
	Seed      bool   `koanf:"seed"`
}

// DedupConfig holds BadgerDB seen-key cache settings.
type DedupConfig struct {
	Path string `koanf:"path"`
	// TTL bounds how long a seen key is cached. The checkin store stays
	// authoritative; the cache only short-circuits repeated lookups.
	TTL time.Duration `koanf:"ttl"`
}

// SyncConfig holds the scheduler and cycle execution settings.
//
// Environment variables:
//   - SYNC_INTERVAL: time between scheduled ticks (default: 1h)
//   - SYNC_LOOKBACK: window start when a server has no checkpoint (default: 1h)
//   - SYNC_CYCLE_TIMEOUT: per-server cycle deadline (default: 30m)
//   - SYNC_WORKERS: concurrent cycle workers (default: 4)
type SyncConfig struct {
	Interval     time.Duration `koanf:"interval"`
	Lookback     time.Duration `koanf:"lookback"`
	CycleTimeout time.Duration `koanf:"cycle_timeout"`
	Workers      int           `koanf:"workers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds API access settings.
//
// APIToken is a static bearer token required on all /api/v1 endpoints except
// health probes. Token issuance and rotation are out of scope; any non-empty
// value enables authentication, an empty value disables it (development only).
type SecurityConfig struct {
	APIToken        string   `koanf:"api_token"`
	CORSOrigins     []string `koanf:"cors_origins"`
	RateLimitPerMin int      `koanf:"rate_limit_per_min"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// defaultConfig returns the built-in defaults applied before file and
// environment layers.
func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Path:      "data/punchsync.db",
			MaxMemory: "1GB",
			Threads:   0, // 0 = NumCPU
		},
		Dedup: DedupConfig{
			Path: "data/dedup",
			TTL:  30 * 24 * time.Hour,
		},
		Sync: SyncConfig{
			Interval:     time.Hour,
			Lookback:     time.Hour,
			CycleTimeout: 30 * time.Minute,
			Workers:      4,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8484,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitPerMin: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks configuration invariants after loading.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if c.Sync.Lookback <= 0 {
		return fmt.Errorf("sync.lookback must be positive, got %s", c.Sync.Lookback)
	}
	if c.Sync.CycleTimeout <= 0 {
		return fmt.Errorf("sync.cycle_timeout must be positive, got %s", c.Sync.CycleTimeout)
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync.workers must be at least 1, got %d", c.Sync.Workers)
	}
	if c.Security.RateLimitPerMin < 1 {
		return fmt.Errorf("security.rate_limit_per_min must be at least 1, got %d", c.Security.RateLimitPerMin)
	}
	return nil
}
