package domain_test

import (
	"net/url"
	"testing"

	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		action string
		want   domain.Command
	}{
		{"open_billing", domain.OpenBilling{}},
		{"confirm_domains", domain.ConfirmDomains{}},
		{"select_domain_seo", domain.SelectDomain{DomainID: "seo"}},
		{"select_domain_paid_ads", domain.SelectDomain{DomainID: "paid_ads"}},
		{"connect_meta", domain.Connect{IntegrationID: "meta"}},
		{"connect_", domain.Unknown{Raw: "connect_"}},
		{"select_domain_", domain.Unknown{Raw: "select_domain_"}},
		{"launch_rockets", domain.Unknown{Raw: "launch_rockets"}},
		{"", domain.Unknown{Raw: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseAction(tt.action))
		})
	}
}

func TestParseEntryParams(t *testing.T) {
	t.Run("Onboarding Flow", func(t *testing.T) {
		p := domain.ParseEntryParams(url.Values{"flow": {"onboarding"}})
		assert.Equal(t, domain.ModeOnboarding, p.Mode)
		assert.Empty(t, p.JustConnected)
	})

	t.Run("Unknown Mode Fails Closed", func(t *testing.T) {
		p := domain.ParseEntryParams(url.Values{"flow": {"mystery"}})
		assert.Equal(t, domain.ModeStandard, p.Mode)
	})

	t.Run("Connected List Drops Empty Items", func(t *testing.T) {
		p := domain.ParseEntryParams(url.Values{"connected": {"meta,,hubspot, "}})
		assert.Equal(t, []string{"meta", "hubspot"}, p.JustConnected)
	})
}

func TestConversation_Supersede(t *testing.T) {
	prompt := domain.Message{
		ID:     "prompt",
		Blocks: []domain.Block{domain.Actions(domain.Element{Label: "Connect", Action: "connect_meta"})},
	}
	intro := domain.Message{ID: "intro", Text: "hi"}
	replacement := domain.Message{
		ID:     "prompt-2",
		Blocks: []domain.Block{domain.Actions(domain.Element{Label: "Connect", Action: "connect_hubspot"})},
	}

	conv := domain.Conversation{intro, prompt}

	once := conv.Supersede(domain.IsIntegrationPrompt, replacement)
	require.Len(t, once, 2)
	assert.Equal(t, "intro", once[0].ID)
	assert.Equal(t, "prompt-2", once[1].ID)

	twice := once.Supersede(domain.IsIntegrationPrompt, replacement)
	assert.Equal(t, once, twice, "superseding with the same message is idempotent")

	assert.Equal(t, 1, twice.Count(domain.IsIntegrationPrompt))
	assert.Len(t, conv, 2, "the original conversation is not modified")
}

func TestIsComposedPrompt(t *testing.T) {
	connect := domain.Message{Blocks: []domain.Block{domain.Actions(domain.Element{Action: domain.ConnectAction("meta")})}}
	focus := domain.Message{Blocks: []domain.Block{domain.Actions(domain.Element{Action: domain.SelectDomainAction("seo")})}}
	billing := domain.Message{Blocks: []domain.Block{domain.Actions(domain.Element{Action: domain.ActionOpenBilling})}}

	assert.True(t, domain.IsComposedPrompt(connect))
	assert.True(t, domain.IsComposedPrompt(focus))
	assert.False(t, domain.IsComposedPrompt(billing))
	assert.False(t, domain.IsComposedPrompt(domain.Message{Text: "hi"}))

	conv := domain.Conversation{{ID: "intro"}, focus}
	next := conv.Supersede(domain.IsComposedPrompt, domain.Message{ID: "focus-2", Blocks: focus.Blocks})
	assert.Equal(t, 1, next.Count(domain.IsComposedPrompt))
}

func TestIntent_URL(t *testing.T) {
	assert.Equal(t, "/app/billing", domain.BillingIntent().URL())
	assert.Equal(t, "/auth/signin?flow=slack&integration=meta", domain.SignInIntent("meta").URL())
}

func TestSnapshot_Buttons(t *testing.T) {
	cat := domain.DefaultCatalog()
	var elements []domain.Element
	for _, d := range cat.Domains {
		elements = append(elements, domain.Element{Label: d.Name, Action: domain.SelectDomainAction(d.ID)})
	}
	m := domain.Message{ID: "m", Blocks: []domain.Block{domain.Divider(), domain.Actions(elements...)}}

	t.Run("No Selection Hides Confirm", func(t *testing.T) {
		snap := domain.Snapshot{}
		buttons, confirm := snap.Buttons(m)
		assert.Len(t, buttons, 4)
		assert.Nil(t, confirm)
	})

	t.Run("Selection Marks Buttons And Shows Confirm", func(t *testing.T) {
		snap := domain.Snapshot{SessionState: domain.SessionState{SelectedFocusDomains: []string{"seo", "email"}}}
		buttons, confirm := snap.Buttons(m)
		require.Len(t, buttons, 4)
		assert.False(t, buttons[0].Selected)
		assert.True(t, buttons[1].Selected)
		assert.True(t, buttons[3].Selected)
		require.NotNil(t, confirm)
		assert.Equal(t, "Confirm Selection (2 domains)", confirm.Label)
		assert.Equal(t, domain.ActionConfirmDomains, confirm.Action)
	})

	t.Run("Confirmed Hides Domain Buttons", func(t *testing.T) {
		snap := domain.Snapshot{SessionState: domain.SessionState{
			SelectedFocusDomains: []string{"seo"},
			FocusConfirmed:       true,
		}}
		buttons, confirm := snap.Buttons(m)
		assert.Empty(t, buttons)
		assert.Nil(t, confirm)
	})
}

func TestMergeHooks(t *testing.T) {
	var calls []string
	merged := domain.MergeHooks(
		domain.LifecycleHooks{OnEvent: func(domain.Event) { calls = append(calls, "a") }},
		domain.LifecycleHooks{},
		domain.LifecycleHooks{OnEvent: func(domain.Event) { calls = append(calls, "b") }},
	)
	require.NotNil(t, merged.OnEvent)
	assert.Nil(t, merged.OnChange)

	merged.OnEvent(domain.Event{})
	assert.Equal(t, []string{"a", "b"}, calls)
}
