package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/metrics"
	"github.com/togethercrew/engagement/internal/roles"
	"github.com/togethercrew/engagement/internal/scores"
	"github.com/togethercrew/engagement/internal/token"
	"github.com/togethercrew/engagement/internal/uri"
)

// Config is the deployment-time configuration of a registry.
type Config struct {
	// BaseURI prefixes token locators. Must be non-empty.
	BaseURI string

	// Scheme selects a built-in token locator scheme (uri.SchemeFlat by
	// default). Ignored when TokenTemplate is set.
	Scheme string

	// TokenTemplate is an explicit token locator pattern.
	TokenTemplate string

	// ScoreTemplate locates score records. Defaults to uri.DefaultScorePattern.
	ScoreTemplate string

	// Providers receive the provider role at construction.
	Providers []identity.Address
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithSink forwards every emitted event to sink in addition to the
// registry's own log.
func WithSink(sink events.Sink) Option {
	return func(r *Registry) {
		r.sink = sink
	}
}

// Registry owns all engagement state.
type Registry struct {
	mu sync.RWMutex

	roles  *roles.Registry
	tokens *token.Registry
	scores *scores.Ledger

	tokenURI uri.Template
	scoreURI uri.Template
	baseURI  string
	paused   bool

	// seq numbers emitted events, starting at 1.
	seq uint64

	sink    events.Sink
	log     *events.Log
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New deploys a registry with deployer holding the admin role.
// It fails with ErrURIEmpty when cfg.BaseURI is empty. No events are
// emitted at construction.
func New(deployer identity.Address, cfg Config, opts ...Option) (*Registry, error) {
	if deployer.IsZero() {
		return nil, errors.New("deployer address is required")
	}
	if cfg.BaseURI == "" {
		return nil, ErrURIEmpty
	}

	tokenURI, err := tokenTemplate(cfg)
	if err != nil {
		return nil, err
	}
	scorePattern := cfg.ScoreTemplate
	if scorePattern == "" {
		scorePattern = uri.DefaultScorePattern
	}
	scoreURI, err := uri.Parse(scorePattern)
	if err != nil {
		return nil, fmt.Errorf("score template: %w", err)
	}

	r := &Registry{
		roles:    roles.New(deployer),
		tokens:   token.New(),
		scores:   scores.New(),
		tokenURI: tokenURI,
		scoreURI: scoreURI,
		baseURI:  cfg.BaseURI,
		log:      events.NewLog(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, p := range cfg.Providers {
		if p.IsZero() {
			return nil, errors.New("provider address is required")
		}
		r.roles.Bootstrap(identity.ProviderRole, p)
	}

	r.logger.Debug("registry deployed",
		"deployer", deployer.String(),
		"base_uri", cfg.BaseURI,
		"token_template", tokenURI.String(),
		"providers", len(cfg.Providers),
	)
	return r, nil
}

func tokenTemplate(cfg Config) (uri.Template, error) {
	if cfg.TokenTemplate != "" {
		t, err := uri.Parse(cfg.TokenTemplate)
		if err != nil {
			return uri.Template{}, fmt.Errorf("token template: %w", err)
		}
		return t, nil
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = uri.SchemeFlat
	}
	return uri.Scheme(scheme)
}

// emit stamps evs with sequence numbers and appends them to the sink.
// Callers hold r.mu for writing.
func (r *Registry) emit(evs ...events.Event) []events.Event {
	for i := range evs {
		r.seq++
		evs[i].Seq = r.seq
		r.metrics.RecordEvent(string(evs[i].Kind))
	}
	r.log.Append(evs...)
	if r.sink != nil {
		r.sink.Append(evs...)
	}
	return evs
}

// done records the outcome of op. Callers hold r.mu for writing.
func (r *Registry) done(op Op, caller identity.Address, err error) {
	if err != nil {
		code := ErrorCode(err)
		r.metrics.RecordRejected(string(op), code)
		r.logger.Info("operation rejected",
			"op", string(op),
			"caller", caller.String(),
			"code", code,
			"error", err,
		)
		return
	}
	r.metrics.RecordOK(string(op))
	r.logger.Debug("operation applied", "op", string(op), "caller", caller.String())
}

// Instrument attaches metrics after construction, used once a replayed
// registry goes live so replay itself is not counted.
func (r *Registry) Instrument(m *metrics.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
	m.SetClasses(r.tokens.Counter())
}
