package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/chatsim/internal/runtime"
	"github.com/aretw0/chatsim/internal/testutils"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *testutils.ManualClock) {
	t.Helper()
	clock := testutils.NewManualClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	n := 0
	base := []session.Option{
		session.WithEngineOptions(runtime.WithClock(clock)),
		session.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("sess-%d", n)
		}),
	}
	m := session.NewManager(append(base, opts...)...)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, clock
}

func TestManager_Lifecycle(t *testing.T) {
	m, clock := newManager(t)
	ctx := context.Background()

	a, err := m.Mount(ctx, domain.EntryParams{})
	require.NoError(t, err)
	b, err := m.Mount(ctx, domain.EntryParams{Mode: domain.ModeOnboarding})
	require.NoError(t, err)

	assert.Equal(t, "sess-1", a.ID())
	assert.Equal(t, []string{"sess-1", "sess-2"}, m.List())

	got, err := m.Get("sess-2")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeOnboarding, got.Snapshot().Mode)

	clock.Advance(time.Minute)
	assert.Len(t, a.Snapshot().Conversation, 2)

	require.NoError(t, m.Unmount(ctx, "sess-1"))
	assert.ErrorIs(t, m.Unmount(ctx, "sess-1"), domain.ErrSessionNotFound)
	_, err = m.Get("sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, a.Send(ctx, "hi"), domain.ErrSessionClosed)
	assert.Equal(t, 1, m.Len())
	assert.NotNil(t, b)
}

func TestManager_Subscribe(t *testing.T) {
	m, clock := newManager(t)
	ctx := context.Background()

	conv, err := m.Mount(ctx, domain.EntryParams{})
	require.NoError(t, err)

	ch, unsubscribe, err := m.Subscribe(conv.ID())
	require.NoError(t, err)
	defer unsubscribe()

	first := <-ch
	assert.Empty(t, first.Conversation)

	clock.Advance(domain.FirstTurnDelay)
	typing := <-ch
	assert.True(t, typing.IsTyping)

	clock.Advance(domain.TypingDelay)
	revealed := <-ch
	assert.Len(t, revealed.Conversation, 1)

	require.NoError(t, m.Unmount(ctx, conv.ID()))
	_, open := <-ch
	assert.False(t, open)

	_, _, err = m.Subscribe(conv.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_SubscribeDuringChanges(t *testing.T) {
	m, clock := newManager(t, session.WithSubscriberBuffer(256))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		conv, err := m.Mount(ctx, domain.EntryParams{})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for step := 0; step < 10; step++ {
				clock.Advance(domain.TypingDelay / 2)
			}
		}()
		ch, unsubscribe, err := m.Subscribe(conv.ID())
		require.NoError(t, err)
		wg.Wait()

		var last domain.Snapshot
		for n := len(ch); n > 0; n-- {
			last = <-ch
		}
		want := conv.Snapshot()
		assert.Equal(t, len(want.Conversation), len(last.Conversation), "iteration %d", i)
		assert.Equal(t, want.IsTyping, last.IsTyping, "iteration %d", i)

		unsubscribe()
		require.NoError(t, m.Unmount(ctx, conv.ID()))
	}
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m, clock := newManager(t, session.WithSubscriberBuffer(1))
	conv, err := m.Mount(context.Background(), domain.EntryParams{})
	require.NoError(t, err)

	ch, unsubscribe, err := m.Subscribe(conv.ID())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	assert.Len(t, conv.Snapshot().Conversation, 2)
	assert.Len(t, ch, 1)

	unsubscribe()
	unsubscribe()
}

func TestManager_SharedHooks(t *testing.T) {
	var mu sync.Mutex
	mounted := map[string]int{}
	hooks := domain.LifecycleHooks{OnEvent: func(e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		mounted[string(e.Type)]++
	}}
	m, _ := newManager(t, session.WithLifecycleHooks(hooks))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := m.Mount(ctx, domain.EntryParams{})
		require.NoError(t, err)
	}
	require.NoError(t, m.Close(ctx))

	_, err := m.Mount(ctx, domain.EntryParams{})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, mounted[string(domain.EventSessionMounted)])
	assert.Equal(t, 3, mounted[string(domain.EventSessionClosed)])
	assert.Equal(t, 0, m.Len())
}

func TestManager_ConcurrentMounts(t *testing.T) {
	m := session.NewManager(session.WithEngineOptions(
		runtime.WithClock(testutils.NewManualClock(time.Now())),
	))
	defer m.Close(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, err := m.Mount(context.Background(), domain.EntryParams{})
			assert.NoError(t, err)
			_, err = conv.Dispatch(context.Background(), domain.ActionOpenBilling)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, m.List(), 20)
}
