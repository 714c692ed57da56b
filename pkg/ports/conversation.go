package ports

import (
	"context"

	"github.com/aretw0/chatsim/pkg/domain"
)

// Conversation is the host-facing surface of one mounted session.
// Render surfaces read snapshots and feed user intents back through it.
type Conversation interface {
	// ID returns the session identifier.
	ID() string

	// Snapshot returns a copy of the current session state.
	Snapshot() domain.Snapshot

	// Dispatch interprets a block action string. It returns the navigation
	// intent to follow, if any.
	Dispatch(ctx context.Context, action string) (*domain.Intent, error)

	// Send appends a free-text user message and schedules the reply.
	Send(ctx context.Context, text string) error

	// SimulateConnect records an integration locally, without the external flow.
	SimulateConnect(ctx context.Context, integrationID string) error

	// ObserveReturn folds an externally reported connection list into the
	// conversation. Only the first non-empty list is applied.
	ObserveReturn(ctx context.Context, integrationIDs []string) error

	// TryAppFirst returns the intent for the app-first onboarding alternative.
	TryAppFirst(ctx context.Context) (*domain.Intent, error)
}
