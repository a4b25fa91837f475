package portal

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://api.example.com"
	return cfg
}

func TestDefaultConfigNeedsOnlyBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig without base URL, got %v", err)
	}

	cfg = validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "BaseURL"},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://x" }, "BaseURL"},
		{"negative timeout", func(c *Config) { c.API.Timeout = -1 }, "Timeout"},
		{"bad admin email", func(c *Config) { c.Admin.Email = "not an email" }, "Admin"},
		{"async without buffer", func(c *Config) { c.Notify.BufferSize = 0 }, "BufferSize"},
		{"latency without metrics", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		}, "EnableLatencyHistograms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestConfigAcceptsSyncNotifyWithoutBuffer(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Async = false
	cfg.Notify.BufferSize = 0
	cfg.Admin.Email = "Admin@Gmail.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithBaseURL("http://localhost:8080").WithLogger(silentLogger())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestBuilderAppliesOptions(t *testing.T) {
	e, err := New().
		WithBaseURL("http://localhost:8080/").
		WithAdminEmail(" admin@gmail.com ").
		WithMetricsEnabled(false).
		WithLogger(silentLogger()).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer e.Close()

	if got := e.Client().BaseURL(); got != "http://localhost:8080" {
		t.Fatalf("unexpected base url %q", got)
	}
	if got := e.AdminPolicy().Email; got != "admin@gmail.com" {
		t.Fatalf("unexpected admin email %q", got)
	}
	if e.Client().Timeout() != DefaultConfig().API.Timeout {
		t.Fatalf("unexpected timeout %v", e.Client().Timeout())
	}
	if len(e.MetricsSnapshot().Counters) != 0 {
		t.Fatal("metrics should be disabled")
	}
	if e.AuthState() == nil || e.Store() == nil {
		t.Fatal("engine must own an auth state and a store")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	if _, err := New().Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
