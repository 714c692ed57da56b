package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/chatsim/internal/logging"
	"github.com/aretw0/chatsim/internal/runtime"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/google/uuid"
)

// DefaultSubscriberBuffer is the snapshot backlog kept per subscriber.
const DefaultSubscriberBuffer = 16

// entry is one live session and its subscribers.
type entry struct {
	engine *runtime.Engine

	mu     sync.Mutex
	subs   map[chan domain.Snapshot]bool // value: received at least one snapshot
	closed bool
}

// Manager orchestrates the live sessions of the process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool

	engineOpts []runtime.EngineOption
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	newID      func() string
	buffer     int
}

// Option configures the Manager.
type Option func(*Manager)

// WithEngineOptions appends options applied to every engine the manager mounts.
func WithEngineOptions(opts ...runtime.EngineOption) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// WithLifecycleHooks registers hooks shared by every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = domain.MergeHooks(m.hooks, hooks)
	}
}

// WithLogger configures a logger for the Manager and its engines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator overrides the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithSubscriberBuffer sets the per-subscriber channel size.
func WithSubscriberBuffer(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.buffer = n
		}
	}
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
		buffer:   DefaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mount creates and starts a session from entry parameters.
func (m *Manager) Mount(ctx context.Context, params domain.EntryParams) (ports.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrSessionClosed
	}

	id := m.newID()
	e := &entry{subs: make(map[chan domain.Snapshot]bool)}
	hooks := domain.MergeHooks(m.hooks, domain.LifecycleHooks{OnChange: e.broadcast})

	opts := append([]runtime.EngineOption{runtime.WithLogger(m.logger)}, m.engineOpts...)
	opts = append(opts, runtime.WithLifecycleHooks(hooks))
	e.engine = runtime.NewEngine(id, params, opts...)

	m.sessions[id] = e
	if err := e.engine.Mount(ctx); err != nil {
		delete(m.sessions, id)
		return nil, err
	}

	m.logger.Info("session mounted", "session_id", id, "mode", params.Mode)
	return e.engine, nil
}

// Get returns the live session with the given id.
func (m *Manager) Get(id string) (ports.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e.engine, nil
}

// Unmount tears the session down and closes its subscriptions.
func (m *Manager) Unmount(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}

	err := e.engine.Unmount(ctx)
	e.closeSubscribers()
	m.logger.Info("session unmounted", "session_id", id)
	return err
}

// List returns the ids of the live sessions, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Subscribe returns a channel of snapshots for the session, primed with the
// current one. Slow subscribers miss intermediate snapshots rather than
// blocking the session. The channel is closed on unsubscribe or unmount.
func (m *Manager) Subscribe(id string) (<-chan domain.Snapshot, func(), error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	ch := make(chan domain.Snapshot, m.buffer)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		ch <- e.engine.Snapshot()
		close(ch)
		return ch, func() {}, nil
	}
	e.subs[ch] = false
	e.mu.Unlock()

	// Registered before the snapshot is taken, so no change is missed. A
	// broadcast that lands first is at least as recent, and the primer is
	// then skipped to keep the channel ordered.
	snap := e.engine.Snapshot()
	e.mu.Lock()
	if received, ok := e.subs[ch]; ok && !received {
		ch <- snap
		e.subs[ch] = true
	}
	e.mu.Unlock()

	unsubscribe := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe, nil
}

// Close unmounts every live session. The manager rejects new mounts after.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Unmount(ctx, id); err != nil && err != domain.ErrSessionNotFound {
			return err
		}
	}
	return nil
}

func (e *entry) broadcast(s domain.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ch := range e.subs {
		select {
		case ch <- s:
			e.subs[ch] = true
		default:
			// Drop if the subscriber is behind.
		}
	}
}

func (e *entry) closeSubscribers() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	for ch := range e.subs {
		close(ch)
		delete(e.subs, ch)
	}
}
