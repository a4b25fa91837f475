package portal

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/miniapp-agency/portal/authstate"
	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/guard"
	"github.com/miniapp-agency/portal/notify"
	"github.com/miniapp-agency/portal/session"
	"github.com/miniapp-agency/portal/workflow"
)

// Builder assembles an [Engine]. Every With method is optional except that
// the config must carry an API base URL. A Builder builds at most once.
type Builder struct {
	config Config

	storage    session.Storage
	notifier   notify.Notifier
	logger     *slog.Logger
	httpClient *http.Client
	auth       *authstate.State

	built bool
}

// New returns a builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets Config.API.BaseURL.
func (b *Builder) WithBaseURL(url string) *Builder {
	b.config.API.BaseURL = url
	return b
}

// WithAdminEmail sets Config.Admin.Email.
func (b *Builder) WithAdminEmail(email string) *Builder {
	b.config.Admin.Email = email
	return b
}

// WithStorage sets the session backend. Defaults to process memory.
func (b *Builder) WithStorage(s session.Storage) *Builder {
	b.storage = s
	return b
}

// WithNotifier sets the sink for user-facing notifications.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger sets the fallback logger. Loggers carried by a request context
// take precedence.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithHTTPClient sets the transport. The engine copies it and applies the
// configured timeout.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithAuthState injects the auth context shared with guards and views.
func (b *Builder) WithAuthState(s *authstate.State) *Builder {
	b.auth = s
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. It performs no
// I/O; call Engine.Restore to load a persisted session.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	sink := b.notifier
	if sink == nil {
		sink = notify.NoOpNotifier{}
	}

	engine := &Engine{
		config: cfg,
		logger: logger,
		admin:  guard.AdminPolicy{Email: strings.TrimSpace(cfg.Admin.Email)},
		login:  workflow.NewMachine(workflow.FlowLogin),
		reset:  workflow.NewMachine(workflow.FlowReset),
	}

	if cfg.Notify.Async {
		engine.dispatcher = notify.NewDispatcher(notify.DispatcherConfig{
			BufferSize: cfg.Notify.BufferSize,
			DropIfFull: cfg.Notify.DropIfFull,
		}, sink)
		engine.notifier = engine.dispatcher
	} else {
		engine.notifier = sink
	}

	client, err := gateway.New(gateway.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPClient: b.httpClient,
		Notifier:   engine.notifier,
		Logger:     logger,
		UserAgent:  cfg.API.UserAgent,
	})
	if err != nil {
		engine.Close()
		return nil, err
	}
	engine.client = client
	engine.store = session.NewStore(b.storage, logger)

	engine.auth = b.auth
	if engine.auth == nil {
		engine.auth = authstate.New()
	}
	engine.metrics = NewMetrics(cfg.Metrics)

	client.AddClassifier(&credentialCapture{engine: engine, path: PathLogin})
	client.AddClassifier(&credentialCapture{engine: engine, path: PathCheckCode, requireToken: true})

	b.built = true

	return engine, nil
}
