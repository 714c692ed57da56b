package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/aretw0/chatsim/pkg/scenario"
	"github.com/google/uuid"
)

// DefaultTimestampLayout is the display format of message timestamps.
const DefaultTimestampLayout = "15:04"

// Engine runs one mounted conversation: the timed reveal of the scenario
// script, the reconciliation of external connection returns and the
// handling of user interactions.
//
// All mutations happen under a single lock. Delayed work goes through the
// session Scheduler and is scoped to the mount that issued it.
type Engine struct {
	id       string
	params   domain.EntryParams
	catalog  domain.Catalog
	script   []domain.MessageTemplate
	clock    ports.Clock
	timings  domain.Timings
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	sink     ports.IntentSink
	newID    func(kind string) string
	tsLayout string

	mu            sync.Mutex
	state         domain.SessionState
	sched         *Scheduler
	epoch         uint64
	mounted       bool
	closed        bool
	typing        int
	revealPending bool
	pendingReturn []string
}

var _ ports.Conversation = (*Engine)(nil)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCatalog replaces the default integration and domain catalogs.
func WithCatalog(cat domain.Catalog) EngineOption {
	return func(e *Engine) {
		e.catalog = cat
	}
}

// WithClock sets the time source driving the session timeline.
func WithClock(clock ports.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithTimings overrides the pacing delays. Intended for tests.
func WithTimings(t domain.Timings) EngineOption {
	return func(e *Engine) {
		e.timings = t
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithIntentSink sets where navigation intents are delivered.
func WithIntentSink(sink ports.IntentSink) EngineOption {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithIDGenerator sets the message id generator. kind is a short prefix
// such as "turn" or "user".
func WithIDGenerator(fn func(kind string) string) EngineOption {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithTimestampLayout sets the time layout used for message timestamps.
func WithTimestampLayout(layout string) EngineOption {
	return func(e *Engine) {
		e.tsLayout = layout
	}
}

// NewEngine creates an unmounted engine for the given entry parameters.
func NewEngine(sessionID string, params domain.EntryParams, opts ...EngineOption) *Engine {
	e := &Engine{
		id:       sessionID,
		params:   params,
		catalog:  domain.DefaultCatalog(),
		clock:    ports.SystemClock{},
		timings:  domain.DefaultTimings(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tsLayout: DefaultTimestampLayout,
		newID: func(kind string) string {
			return kind + "-" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.params.Mode = domain.ParseEntryMode(string(params.Mode))
	e.script = scenario.Script(e.params.Mode, e.catalog)
	e.logger = e.logger.With("session_id", sessionID)
	return e
}

// ID returns the session identifier.
func (e *Engine) ID() string {
	return e.id
}

// Mount starts the session: seeds the state from the entry parameters and
// schedules the first scripted turn. Mounting twice is a no-op.
func (e *Engine) Mount(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrSessionClosed
	}
	if e.mounted {
		return nil
	}

	e.mounted = true
	e.epoch++
	e.sched = NewScheduler(e.clock)
	e.state = domain.SessionState{
		Conversation:          domain.Conversation{},
		ConnectedIntegrations: []string{},
		SelectedFocusDomains:  []string{},
	}
	e.seedLocked()

	e.logger.Debug("session mounted", "mode", e.params.Mode, "connected", e.state.ConnectedIntegrations)
	e.emitLocked(domain.Event{Type: domain.EventSessionMounted})
	e.scheduleRevealLocked()
	e.changedLocked()
	return nil
}

// Unmount tears the session down. Pending callbacks are dropped and any
// that already started will not mutate state. The engine cannot be
// mounted again.
func (e *Engine) Unmount(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	wasMounted := e.mounted
	e.mounted = false
	e.closed = true
	if e.sched != nil {
		e.sched.Close()
	}
	if wasMounted {
		e.logger.Debug("session unmounted")
		e.emitLocked(domain.Event{Type: domain.EventSessionClosed})
	}
	return nil
}

// Snapshot returns a deep copy of the current session state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// ObserveReturn folds an externally reported list of connected integrations
// into the session. Only the first non-empty list is ever applied.
func (e *Engine) ObserveReturn(ctx context.Context, integrationIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return domain.ErrSessionClosed
	}
	if e.state.ExternalReturnApplied || len(e.pendingReturn) > 0 {
		e.logger.Debug("external return already observed", "ids", integrationIDs)
		return nil
	}
	known := e.recordConnectedLocked(integrationIDs)
	if len(known) == 0 {
		return nil
	}
	e.pendingReturn = known
	e.maybeReconcileLocked()
	e.changedLocked()
	return nil
}

// SimulateConnect records an integration as connected without the external
// flow, then rewrites every actionable message into the composed prompt.
func (e *Engine) SimulateConnect(ctx context.Context, integrationID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return domain.ErrSessionClosed
	}
	if _, ok := e.catalog.Integration(integrationID); !ok {
		e.ignoreLocked("unknown_integration", "simulate connect for unknown integration", "integration", integrationID)
		return nil
	}
	if e.state.IsConnected(integrationID) {
		e.logger.Debug("integration already connected", "integration", integrationID)
		return nil
	}

	e.state.ConnectedIntegrations = append(e.state.ConnectedIntegrations, integrationID)
	e.afterLocked(e.timings.ReturnDelay, func() {
		e.beginTypingLocked()
		e.afterLocked(e.timings.TypingDelay, func() {
			e.endTypingLocked()
			tmpl := scenario.ComposeIntegrationMessage(e.catalog, e.state.ConnectedIntegrations)
			e.supersedeLocked(domain.HoldsActions, e.materialize(tmpl, "assistant"), "simulate")
		})
	})
	e.changedLocked()
	return nil
}

// seedLocked applies the entry parameters to a fresh state.
func (e *Engine) seedLocked() {
	if e.params.Mode == domain.ModeOnboarding {
		e.state.ConnectedIntegrations = e.catalog.IntegrationIDs()
		e.state.ExternalReturnApplied = true
		return
	}
	e.pendingReturn = e.recordConnectedLocked(e.params.JustConnected)
}

// recordConnectedLocked adds the known ids to the connected set and returns
// them. Unknown ids are logged and dropped.
func (e *Engine) recordConnectedLocked(ids []string) []string {
	var known []string
	for _, id := range ids {
		if _, ok := e.catalog.Integration(id); !ok {
			e.ignoreLocked("unknown_integration", "ignoring unknown integration", "integration", id)
			continue
		}
		if containsID(known, id) {
			continue
		}
		known = append(known, id)
		if !e.state.IsConnected(id) {
			e.state.ConnectedIntegrations = append(e.state.ConnectedIntegrations, id)
		}
	}
	return known
}

// scheduleRevealLocked queues the next scripted turn, if any remain.
func (e *Engine) scheduleRevealLocked() {
	idx := e.state.RevealedTurnIndex
	if idx >= len(e.script) || e.revealPending {
		return
	}
	delay := e.timings.TurnDelay
	if idx == 0 {
		delay = e.timings.FirstTurnDelay
	}

	e.revealPending = true
	e.afterLocked(delay, func() {
		e.beginTypingLocked()
		e.afterLocked(e.timings.TypingDelay, func() {
			e.endTypingLocked()
			e.revealLocked()
			e.revealPending = false
			e.scheduleRevealLocked()
			e.maybeReconcileLocked()
		})
	})
}

func (e *Engine) revealLocked() {
	idx := e.state.RevealedTurnIndex
	if idx >= len(e.script) {
		return
	}
	e.state.RevealedTurnIndex++

	msg := e.materialize(e.script[idx], "turn")
	if domain.IsIntegrationPrompt(msg) {
		match := domain.IsIntegrationPrompt
		if len(e.state.ConnectedIntegrations) > 0 {
			tmpl := scenario.ComposeIntegrationMessage(e.catalog, e.state.ConnectedIntegrations)
			msg = e.materialize(tmpl, "turn")
			match = domain.IsComposedPrompt
		}
		e.supersedeLocked(match, msg, "reveal")
	} else {
		e.state.Conversation = e.state.Conversation.Append(msg)
	}

	e.emitLocked(domain.Event{
		Type:      domain.EventTurnRevealed,
		MessageID: msg.ID,
		Turn:      e.state.RevealedTurnIndex,
	})
}

// maybeReconcileLocked starts the one-shot external-return reconciliation
// once the conversation holds at least one message.
func (e *Engine) maybeReconcileLocked() {
	if e.state.ExternalReturnApplied || len(e.pendingReturn) == 0 || len(e.state.Conversation) == 0 {
		return
	}
	e.state.ExternalReturnApplied = true
	ids := e.pendingReturn
	e.pendingReturn = nil

	announce := e.materialize(scenario.ReturnAnnouncement(e.catalog, ids), "user")
	e.state.Conversation = e.state.Conversation.Append(announce)

	e.afterLocked(e.timings.ReturnDelay, func() {
		e.beginTypingLocked()
		e.afterLocked(e.timings.TypingDelay, func() {
			e.endTypingLocked()
			tmpl := scenario.ComposeIntegrationMessage(e.catalog, e.state.ConnectedIntegrations)
			msg := e.materialize(tmpl, "assistant")
			e.supersedeLocked(domain.IsComposedPrompt, msg, "reconcile")
			e.emitLocked(domain.Event{Type: domain.EventReconciled, MessageID: msg.ID})
		})
	})
}

func (e *Engine) supersedeLocked(match func(domain.Message) bool, msg domain.Message, reason string) {
	before := len(e.state.Conversation)
	e.state.Conversation = e.state.Conversation.Supersede(match, msg)
	if removed := before + 1 - len(e.state.Conversation); removed > 0 {
		e.emitLocked(domain.Event{
			Type:      domain.EventSuperseded,
			MessageID: msg.ID,
			Reason:    reason,
			Removed:   removed,
		})
	}
}

// afterLocked schedules fn on the session timeline. fn runs under the
// engine lock and only if the mount that scheduled it is still current.
func (e *Engine) afterLocked(d time.Duration, fn func()) {
	epoch := e.epoch
	e.sched.After(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.mounted || e.epoch != epoch {
			return
		}
		fn()
		e.changedLocked()
	})
}

func (e *Engine) beginTypingLocked() {
	e.typing++
	e.state.IsTyping = true
}

func (e *Engine) endTypingLocked() {
	if e.typing > 0 {
		e.typing--
	}
	e.state.IsTyping = e.typing > 0
}

func (e *Engine) materialize(t domain.MessageTemplate, kind string) domain.Message {
	return domain.Message{
		ID:        e.newID(kind),
		Sender:    t.Sender,
		Text:      t.Text,
		Timestamp: e.clock.Now().Format(e.tsLayout),
		Turn:      e.state.RevealedTurnIndex,
		Blocks:    domain.Message{Blocks: t.Blocks}.Clone().Blocks,
	}
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		SessionID:    e.id,
		Mode:         e.params.Mode,
		ScriptLength: len(e.script),
		SessionState: e.state.Clone(),
	}
}

// emitLocked delivers an event to the hooks. Hooks must not call back into
// the engine.
func (e *Engine) emitLocked(ev domain.Event) {
	if e.hooks.OnEvent == nil {
		return
	}
	ev.Timestamp = e.clock.Now()
	ev.SessionID = e.id
	ev.Mode = e.params.Mode
	e.hooks.OnEvent(ev)
}

func (e *Engine) changedLocked() {
	if e.hooks.OnChange != nil {
		e.hooks.OnChange(e.snapshotLocked())
	}
}

// ignoreLocked records an input that was dropped because it fell outside
// the known vocabulary.
func (e *Engine) ignoreLocked(reason, msg string, args ...any) {
	e.logger.Warn(msg, args...)
	e.emitLocked(domain.Event{Type: domain.EventActionIgnored, Reason: reason})
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
