package runner_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/chatsim/internal/runtime"
	"github.com/aretw0/chatsim/internal/testutils"
	"github.com/aretw0/chatsim/pkg/adapters/memory"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want runner.Input
	}{
		{"hello there", runner.Input{Kind: runner.InputText, Value: "hello there"}},
		{"/2", runner.Input{Kind: runner.InputPress, Index: 2}},
		{"/click open_billing", runner.Input{Kind: runner.InputClick, Value: "open_billing"}},
		{"/simulate meta", runner.Input{Kind: runner.InputSimulate, Value: "meta"}},
		{"/return meta, hubspot", runner.Input{Kind: runner.InputReturn, IDs: []string{"meta", "hubspot"}}},
		{"/appfirst", runner.Input{Kind: runner.InputAppFirst}},
		{"/QUIT", runner.Input{Kind: runner.InputQuit}},
		{"/click", runner.Input{Kind: runner.InputHelp}},
		{"/shrug", runner.Input{Kind: runner.InputText, Value: "/shrug"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, runner.ParseLine(tt.line))
		})
	}
}

func TestRunner_Session(t *testing.T) {
	clock := testutils.NewManualClock(time.Date(2025, 5, 1, 14, 5, 0, 0, time.UTC))
	sink := memory.NewIntentLog(0)
	engine := runtime.NewEngine("tty", domain.EntryParams{},
		runtime.WithClock(clock),
		runtime.WithIntentSink(sink),
	)
	ctx := context.Background()
	require.NoError(t, engine.Mount(ctx))
	defer engine.Unmount(ctx)
	clock.Advance(time.Minute)

	input := strings.Join([]string{
		"/1",
		"/9",
		"/simulate hubspot",
		"how's billing",
		"/appfirst",
		"/quit",
		"never read",
	}, "\n")
	var out bytes.Buffer
	r := runner.NewRunner(runner.WithInput(strings.NewReader(input)), runner.WithOutput(&out))

	require.NoError(t, r.Run(ctx, engine, nil))

	text := out.String()
	assert.Contains(t, text, "Marko APP  14:05")
	assert.Contains(t, text, "[1]   📊 Connect Meta Ads")
	assert.Contains(t, text, "[3]   📧 Connect Customer.io")
	assert.Contains(t, text, "→ navigate: /auth/signin?flow=slack&integration=meta")
	assert.Contains(t, text, "No button 9.")
	assert.Contains(t, text, "You  14:06\nhow's billing")
	assert.Contains(t, text, "→ navigate: /auth/signin\n")
	assert.NotContains(t, text, "never read")

	assert.Len(t, sink.Entries("tty"), 2)
	assert.Equal(t, []string{"hubspot"}, engine.Snapshot().ConnectedIntegrations)
}

func TestRunner_Updates(t *testing.T) {
	clock := testutils.NewManualClock(time.Now())
	engine := runtime.NewEngine("tty", domain.EntryParams{Mode: domain.ModeOnboarding}, runtime.WithClock(clock))
	ctx := context.Background()
	require.NoError(t, engine.Mount(ctx))
	defer engine.Unmount(ctx)

	updates := make(chan domain.Snapshot, 4)
	clock.Advance(domain.FirstTurnDelay)
	updates <- engine.Snapshot()
	clock.Advance(time.Minute)
	updates <- engine.Snapshot()
	close(updates)

	// Input that never ends; the closed updates channel ends the run.
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	r := runner.NewRunner(runner.WithInput(pr), runner.WithOutput(&out))
	require.NoError(t, r.Run(ctx, engine, updates))

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "Marko is typing…"))
	assert.Contains(t, text, "Your integrations are all set up")
	assert.Contains(t, text, "[4]   📧 Email Marketing")
}

func TestRunner_RejectsOversizedText(t *testing.T) {
	clock := testutils.NewManualClock(time.Now())
	engine := runtime.NewEngine("tty", domain.EntryParams{}, runtime.WithClock(clock))
	ctx := context.Background()
	require.NoError(t, engine.Mount(ctx))
	defer engine.Unmount(ctx)

	var out bytes.Buffer
	r := runner.NewRunner(
		runner.WithInput(strings.NewReader("this is far too long\n")),
		runner.WithOutput(&out),
		runner.WithMaxInputSize(5),
	)
	require.NoError(t, r.Run(ctx, engine, nil))

	assert.Contains(t, out.String(), "⚠ message is too long: 20 bytes, limit 5")
	assert.Empty(t, engine.Snapshot().Conversation)
}

func TestPrinter_KeepsEarlierPromptReachable(t *testing.T) {
	focus := domain.Message{
		ID:     "focus",
		Sender: domain.SenderAssistant,
		Text:   "Pick your areas",
		Blocks: []domain.Block{domain.Actions(
			domain.Element{Label: "SEO", Action: domain.SelectDomainAction("seo")},
			domain.Element{Label: "Email", Action: domain.SelectDomainAction("email")},
		)},
	}
	billing := func(id string) domain.Message {
		return domain.Message{
			ID:     id,
			Sender: domain.SenderAssistant,
			Text:   "Billing lives in the app",
			Blocks: []domain.Block{domain.Actions(
				domain.Element{Label: "Open billing", Action: domain.ActionOpenBilling},
			)},
		}
	}

	snap := domain.Snapshot{SessionState: domain.SessionState{
		Conversation:         domain.Conversation{focus, billing("reply-1"), billing("reply-2")},
		SelectedFocusDomains: []string{"seo"},
	}}

	var out bytes.Buffer
	p := runner.NewPrinter(&out, nil)
	require.NoError(t, p.Print(snap))

	text := out.String()
	assert.Contains(t, text, "[1] ✓ SEO")
	assert.Contains(t, text, "[2]   Email")
	assert.Contains(t, text, "[3]   Confirm Selection (1 domain)")
	assert.Contains(t, text, "[4]   Open billing")
	assert.Equal(t, 1, strings.Count(text, "Open billing"))

	el, ok := p.Button(3)
	require.True(t, ok)
	assert.Equal(t, domain.ActionConfirmDomains, el.Action)
	_, ok = p.Button(5)
	assert.False(t, ok)
}
