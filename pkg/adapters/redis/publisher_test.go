package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/chatsim/pkg/adapters/redis"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.IntentSink = (*redis.IntentPublisher)(nil)

func setup(t *testing.T, opts ...redis.Option) (*miniredis.Miniredis, *redis.IntentPublisher) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	p := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { _ = p.Close() })
	return mr, p
}

func TestIntentPublisher_Publish(t *testing.T) {
	mr, p := setup(t, redis.WithStream("test:intents"))
	ctx := context.Background()

	require.NoError(t, p.Ping(ctx))
	require.NoError(t, p.Publish(ctx, "s-1", domain.SignInIntent("meta")))
	require.NoError(t, p.Publish(ctx, "s-1", domain.BillingIntent()))

	entries, err := mr.Stream("test:intents")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{
		"session_id", "s-1",
		"kind", "sign_in",
		"url", "/auth/signin?flow=slack&integration=meta",
	}, entries[0].Values[:6])

	recent, err := p.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, domain.IntentBilling, recent[0].Kind)
	assert.Equal(t, "meta", recent[1].Params["integration"])
}

func TestIntentPublisher_MaxLen(t *testing.T) {
	mr, p := setup(t, redis.WithMaxLen(2))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Publish(ctx, "s", domain.AppFirstIntent()))
	}
	entries, err := mr.Stream("chatsim:intents")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestIntentPublisher_Unavailable(t *testing.T) {
	mr, p := setup(t)
	mr.Close()

	err := p.Publish(context.Background(), "s", domain.BillingIntent())
	assert.ErrorContains(t, err, "failed to publish intent")
}
