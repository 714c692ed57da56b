// Package redis delivers navigation intents to a capped Redis stream, where
// the external router consumes them.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/chatsim/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Stream entry fields.
const (
	FieldSessionID = "session_id"
	FieldKind      = "kind"
	FieldURL       = "url"
	FieldPayload   = "payload"
)

// IntentPublisher implements ports.IntentSink using a Redis stream.
type IntentPublisher struct {
	client *backend.Client
	stream string
	maxLen int64
}

// Option configures an IntentPublisher.
type Option func(*IntentPublisher)

// WithStream sets the stream key.
func WithStream(stream string) Option {
	return func(p *IntentPublisher) {
		p.stream = stream
	}
}

// WithMaxLen caps the stream length. Older entries are trimmed on append.
func WithMaxLen(n int64) Option {
	return func(p *IntentPublisher) {
		p.maxLen = n
	}
}

// New creates a publisher with its own client.
func New(address, password string, db int, opts ...Option) *IntentPublisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *IntentPublisher {
	p := &IntentPublisher{
		client: client,
		stream: "chatsim:intents",
		maxLen: 1000,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish appends the intent to the stream.
func (p *IntentPublisher) Publish(ctx context.Context, sessionID string, intent domain.Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	args := &backend.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Values: []any{
			FieldSessionID, sessionID,
			FieldKind, string(intent.Kind),
			FieldURL, intent.URL(),
			FieldPayload, string(payload),
		},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish intent to %s: %w", p.stream, err)
	}
	return nil
}

// Recent returns up to n of the newest intents, newest first.
func (p *IntentPublisher) Recent(ctx context.Context, n int64) ([]domain.Intent, error) {
	msgs, err := p.client.XRevRangeN(ctx, p.stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.stream, err)
	}

	out := make([]domain.Intent, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values[FieldPayload].(string)
		if !ok {
			continue
		}
		var intent domain.Intent
		if err := json.Unmarshal([]byte(raw), &intent); err != nil {
			return nil, fmt.Errorf("failed to decode entry %s: %w", m.ID, err)
		}
		out = append(out, intent)
	}
	return out, nil
}

// Ping checks connectivity.
func (p *IntentPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the client.
func (p *IntentPublisher) Close() error {
	return p.client.Close()
}
