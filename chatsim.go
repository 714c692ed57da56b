package chatsim

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aretw0/chatsim/internal/logging"
	"github.com/aretw0/chatsim/internal/runtime"
	"github.com/aretw0/chatsim/pkg/adapters/memory"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/observability"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/aretw0/chatsim/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Simulator is the high-level entry point of the library.
// It owns the live sessions, the in-memory intent log and, optionally, the
// Prometheus collectors.
type Simulator struct {
	manager *session.Manager
	intents *memory.IntentLog
	metrics *observability.Metrics

	engineOpts []runtime.EngineOption
	sinks      ports.MultiSink
	hooks      domain.LifecycleHooks
	registerer prometheus.Registerer
	logSize    int
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Simulator.
type Option func(*Simulator)

// WithLogger sets a custom structured logger for the simulator and its sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithCatalog replaces the integration and focus domain catalogs.
func WithCatalog(cat domain.Catalog) Option {
	return func(s *Simulator) {
		s.engineOpts = append(s.engineOpts, runtime.WithCatalog(cat))
	}
}

// WithTimings replaces the pacing of scheduled turns.
func WithTimings(t domain.Timings) Option {
	return func(s *Simulator) {
		s.engineOpts = append(s.engineOpts, runtime.WithTimings(t))
	}
}

// WithClock drives every session timeline from clock.
func WithClock(clock ports.Clock) Option {
	return func(s *Simulator) {
		s.engineOpts = append(s.engineOpts, runtime.WithClock(clock))
	}
}

// WithIntentSink adds a destination for navigation intents. Intents are
// always recorded in the in-memory log as well.
func WithIntentSink(sink ports.IntentSink) Option {
	return func(s *Simulator) {
		s.sinks = append(s.sinks, sink)
	}
}

// WithLifecycleHooks registers observability hooks shared by every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Simulator) {
		s.hooks = domain.MergeHooks(s.hooks, hooks)
	}
}

// WithMetrics registers the chatsim collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Simulator) {
		s.registerer = reg
	}
}

// WithIntentLogSize bounds the in-memory intent log.
func WithIntentLogSize(n int) Option {
	return func(s *Simulator) {
		s.logSize = n
	}
}

// New creates a Simulator with no live sessions.
func New(opts ...Option) *Simulator {
	s := &Simulator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	s.intents = memory.NewIntentLog(s.logSize)
	sink := append(ports.MultiSink{s.intents}, s.sinks...)

	hooks := domain.MergeHooks(s.hooks, observability.LogHooks(s.logger))
	if s.registerer != nil {
		s.metrics = observability.NewMetrics(s.registerer)
		hooks = domain.MergeHooks(hooks, s.metrics.Hooks())
	}

	engineOpts := append([]runtime.EngineOption{runtime.WithIntentSink(sink)}, s.engineOpts...)
	s.manager = session.NewManager(
		session.WithLogger(s.logger),
		session.WithEngineOptions(engineOpts...),
		session.WithLifecycleHooks(hooks),
	)
	return s
}

// Start mounts a new conversation.
func (s *Simulator) Start(ctx context.Context, params domain.EntryParams) (ports.Conversation, error) {
	return s.manager.Mount(ctx, params)
}

// StartFromQuery mounts a conversation from a navigation query string such
// as "flow=onboarding&connected=meta,hubspot".
func (s *Simulator) StartFromQuery(ctx context.Context, rawQuery string) (ports.Conversation, error) {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid entry query: %w", err)
	}
	return s.Start(ctx, domain.ParseEntryParams(q))
}

// Get returns a live conversation.
func (s *Simulator) Get(id string) (ports.Conversation, error) {
	return s.manager.Get(id)
}

// End unmounts a conversation, discarding its state and pending turns.
func (s *Simulator) End(ctx context.Context, id string) error {
	return s.manager.Unmount(ctx, id)
}

// Sessions returns the session manager, for adapters that serve it.
func (s *Simulator) Sessions() *session.Manager {
	return s.manager
}

// Intents returns the log of navigation intents emitted so far.
func (s *Simulator) Intents() *memory.IntentLog {
	return s.intents
}

// Metrics returns the collectors, or nil when WithMetrics was not given.
func (s *Simulator) Metrics() *observability.Metrics {
	return s.metrics
}

// Close ends every live conversation.
func (s *Simulator) Close(ctx context.Context) error {
	return s.manager.Close(ctx)
}
