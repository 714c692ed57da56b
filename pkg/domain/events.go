package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnRevealed   EventType = "turn_revealed"
	EventSuperseded     EventType = "superseded"
	EventReconciled     EventType = "reconciled"
	EventIntent         EventType = "intent"
	EventActionIgnored  EventType = "action_ignored"
	EventSessionMounted EventType = "session_mounted"
	EventSessionClosed  EventType = "session_closed"
)

// Event describes something the engine did, for observability.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Mode      EntryMode `json:"mode,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Turn      int       `json:"turn,omitempty"`
	// Reason is a short machine-readable qualifier, e.g. the supersede cause
	// or the reason an action was ignored.
	Reason string  `json:"reason,omitempty"`
	Intent *Intent `json:"intent,omitempty"`
	// Removed counts the messages dropped by a supersede.
	Removed int `json:"removed,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run on the session's serialized timeline and must not call back
// into the engine.
type LifecycleHooks struct {
	OnEvent  func(Event)
	OnChange func(Snapshot)
}

// MergeHooks returns hooks that invoke each of the given hooks in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	var onEvent []func(Event)
	var onChange []func(Snapshot)
	for _, h := range hooks {
		if h.OnEvent != nil {
			onEvent = append(onEvent, h.OnEvent)
		}
		if h.OnChange != nil {
			onChange = append(onChange, h.OnChange)
		}
	}
	if len(onEvent) > 0 {
		merged.OnEvent = func(e Event) {
			for _, fn := range onEvent {
				fn(e)
			}
		}
	}
	if len(onChange) > 0 {
		merged.OnChange = func(s Snapshot) {
			for _, fn := range onChange {
				fn(s)
			}
		}
	}
	return merged
}
