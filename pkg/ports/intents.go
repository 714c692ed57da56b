package ports

import (
	"context"
	"errors"

	"github.com/aretw0/chatsim/pkg/domain"
)

// IntentSink delivers navigation intents to the external router.
// Implementations must be safe for concurrent use.
type IntentSink interface {
	Publish(ctx context.Context, sessionID string, intent domain.Intent) error
}

// IntentSinkFunc adapts a function to IntentSink.
type IntentSinkFunc func(ctx context.Context, sessionID string, intent domain.Intent) error

// Publish calls f.
func (f IntentSinkFunc) Publish(ctx context.Context, sessionID string, intent domain.Intent) error {
	return f(ctx, sessionID, intent)
}

// MultiSink publishes to every sink in order and returns the joined errors.
type MultiSink []IntentSink

// Publish delivers the intent to each sink, continuing past failures.
func (m MultiSink) Publish(ctx context.Context, sessionID string, intent domain.Intent) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, sessionID, intent); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
