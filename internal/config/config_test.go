// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Server.Port != 8484 {
		t.Errorf("default port = %d, want 8484", cfg.Server.Port)
	}
	if cfg.Sync.Interval != time.Hour {
		t.Errorf("default sync interval = %s, want 1h", cfg.Sync.Interval)
	}
	if cfg.Sync.CycleTimeout != 30*time.Minute {
		t.Errorf("default cycle timeout = %s, want 30m", cfg.Sync.CycleTimeout)
	}
	if cfg.Security.APIToken != "" {
		t.Error("default config must not ship an API token")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults pass",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "non-positive interval",
			mutate:  func(c *Config) { c.Sync.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "non-positive lookback",
			mutate:  func(c *Config) { c.Sync.Lookback = -time.Minute },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Sync.Workers = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8484}
	if got := cfg.Addr(); got != "127.0.0.1:8484" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"DATABASE_PATH", "database.path"},
		{"SYNC_CYCLE_TIMEOUT", "sync.cycle_timeout"},
		{"SERVER_PORT", "server.port"},
		{"API_TOKEN", "security.api_token"},
		{"LOG_LEVEL", "logging.level"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYNC_WORKERS", "2")
	t.Setenv("API_TOKEN", "test-token")
	t.Setenv("CORS_ORIGINS", "https://hr.example.com, https://admin.example.com")
	t.Setenv(ConfigPathEnvVar, "/nonexistent/punchsync.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090 from env", cfg.Server.Port)
	}
	if cfg.Sync.Workers != 2 {
		t.Errorf("workers = %d, want 2 from env", cfg.Sync.Workers)
	}
	if cfg.Security.APIToken != "test-token" {
		t.Errorf("api token = %q, want test-token", cfg.Security.APIToken)
	}
	want := []string{"https://hr.example.com", "https://admin.example.com"}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != want[0] || cfg.Security.CORSOrigins[1] != want[1] {
		t.Errorf("cors origins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}
