package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/chatsim/internal/runtime"
	"github.com/aretw0/chatsim/internal/testutils"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	clock := testutils.NewManualClock(time.Now())
	ctx := context.Background()

	engine := runtime.NewEngine("m-1", domain.EntryParams{JustConnected: []string{"meta"}},
		runtime.WithClock(clock),
		runtime.WithLifecycleHooks(metrics.Hooks()),
	)
	require.NoError(t, engine.Mount(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActiveSessions))

	clock.Advance(time.Minute)
	_, err := engine.Dispatch(ctx, "connect_hubspot")
	require.NoError(t, err)
	_, err = engine.Dispatch(ctx, "dance")
	require.NoError(t, err)
	require.NoError(t, engine.Unmount(ctx))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.TurnsRevealed.WithLabelValues("standard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reconciliations))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Intents.WithLabelValues("sign_in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActionsIgnored.WithLabelValues("unknown_action")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Supersedes.WithLabelValues("reveal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ActiveSessions))

	count, err := testutil.GatherAndCount(reg, "chatsim_turns_revealed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)

	intent := domain.BillingIntent()
	hooks.OnEvent(domain.Event{Type: domain.EventIntent, SessionID: "s", Intent: &intent})
	assert.Contains(t, buf.String(), "msg=intent")
	assert.Contains(t, buf.String(), "intent=/app/billing")
}
