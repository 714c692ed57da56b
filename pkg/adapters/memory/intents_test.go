package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/chatsim/pkg/adapters/memory"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.IntentSink = (*memory.IntentLog)(nil)

func TestIntentLog(t *testing.T) {
	log := memory.NewIntentLog(3)
	ctx := context.Background()

	_, ok := log.Last("a")
	assert.False(t, ok)

	require.NoError(t, log.Publish(ctx, "a", domain.BillingIntent()))
	require.NoError(t, log.Publish(ctx, "b", domain.SignInIntent("meta")))
	require.NoError(t, log.Publish(ctx, "a", domain.AppFirstIntent()))

	last, ok := log.Last("a")
	require.True(t, ok)
	assert.Equal(t, domain.IntentAppFirst, last.Kind)
	assert.Len(t, log.Entries("a"), 2)
	assert.Len(t, log.Entries(""), 3)

	require.NoError(t, log.Publish(ctx, "c", domain.BillingIntent()))
	all := log.Entries("")
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].SessionID)
	assert.Empty(t, log.Entries("missing"))
}

func TestIntentLog_Concurrent(t *testing.T) {
	log := memory.NewIntentLog(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = log.Publish(context.Background(), fmt.Sprintf("s-%d", i%5), domain.BillingIntent())
		}()
	}
	wg.Wait()
	assert.Len(t, log.Entries(""), 50)
	assert.Len(t, log.Entries("s-0"), 10)
}
