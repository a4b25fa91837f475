package portal

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/miniapp-agency/portal/gateway"
)

// Config is the engine configuration. Build it with DefaultConfig and
// override fields; Validate runs inside Builder.Build.
type Config struct {
	API     APIConfig
	Admin   AdminConfig
	Notify  NotifyConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig points the engine at the portal backend.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
ADMIN CONFIG
====================================
*/

// AdminConfig names the single administrator. Matching is
// case-insensitive; an empty email disables admin routes entirely.
type AdminConfig struct {
	Email string
}

/*
====================================
NOTIFY CONFIG
====================================
*/

// NotifyConfig controls delivery of user-facing notifications.
//
// With Async set, notifications go through a buffered dispatcher so no
// operation waits on a slow sink. DropIfFull trades completeness for latency
// once the buffer is full; dropped notifications are counted.
type NotifyConfig struct {
	Async      bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration that only lacks the backend URL.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   gateway.DefaultTimeout,
			UserAgent: "miniapp-portal",
		},
		Notify: NotifyConfig{
			Async:      true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return fmt.Errorf("%w: API BaseURL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: API BaseURL must be an absolute http(s) URL", ErrInvalidConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: API Timeout must be >= 0", ErrInvalidConfig)
	}

	if admin := strings.TrimSpace(c.Admin.Email); admin != "" {
		if _, err := mail.ParseAddress(admin); err != nil {
			return fmt.Errorf("%w: Admin Email is not an address", ErrInvalidConfig)
		}
	}

	if c.Notify.Async && c.Notify.BufferSize <= 0 {
		return fmt.Errorf("%w: Notify BufferSize must be > 0 when Async is true", ErrInvalidConfig)
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics EnableLatencyHistograms requires Metrics Enabled", ErrInvalidConfig)
	}

	return nil
}
