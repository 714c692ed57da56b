package scenario

import (
	"fmt"

	"github.com/aretw0/chatsim/pkg/domain"
)

// Hints shown under interactive blocks.
const (
	ConnectHint = "↗️ Opens app.marko.ai — Sign in with Slack required"
	DomainHint  = "Click to toggle selection • Multiple domains supported"
)

// Script returns the scripted assistant turns for the entry mode.
// Unknown modes get the standard script.
func Script(mode domain.EntryMode, cat domain.Catalog) []domain.MessageTemplate {
	if mode == domain.ModeOnboarding {
		return []domain.MessageTemplate{
			assistant("👋 Hey! Your integrations are all set up. I'm ready to start helping you with marketing."),
			{
				Sender: domain.SenderAssistant,
				Text:   "Which areas would you like me to focus on? Select the domains you want help with:",
				Blocks: domainSelectionBlocks(cat),
			},
		}
	}

	return []domain.MessageTemplate{
		assistant("👋 Hey there! I'm Marko, your new AI marketing coworker. Thanks for adding me to your workspace!"),
		{
			Sender: domain.SenderAssistant,
			Text: "Before I can start helping you with campaigns, I'll need access to your marketing tools. " +
				"Click a button below to open our app and connect your integrations (you'll sign in with Slack for security).",
			Blocks: []domain.Block{
				domain.Divider(),
				domain.Section("Connect your integrations:"),
				domain.Actions(connectButtons(cat, nil)...),
				domain.Context(ConnectHint),
			},
		},
	}
}

func assistant(text string) domain.MessageTemplate {
	return domain.MessageTemplate{Sender: domain.SenderAssistant, Text: text}
}

// ConnectButton builds the button that starts the connect flow for in.
func ConnectButton(in domain.Integration) domain.Element {
	style := domain.StyleDefault
	if in.Primary {
		style = domain.StylePrimary
	}
	return domain.Element{
		Label:  fmt.Sprintf("%s Connect %s", in.Emoji, in.Name),
		Style:  style,
		Action: domain.ConnectAction(in.ID),
		URL:    domain.IntegrationsPath,
	}
}

// connectButtons returns one button per integration not in connected,
// preserving catalog order.
func connectButtons(cat domain.Catalog, connected []string) []domain.Element {
	var out []domain.Element
	for _, in := range cat.Integrations {
		if containsID(connected, in.ID) {
			continue
		}
		out = append(out, ConnectButton(in))
	}
	return out
}

func domainSelectionBlocks(cat domain.Catalog) []domain.Block {
	elements := make([]domain.Element, 0, len(cat.Domains))
	for _, d := range cat.Domains {
		elements = append(elements, domain.Element{
			Label:  fmt.Sprintf("%s %s", d.Emoji, d.Name),
			Style:  domain.StyleDefault,
			Action: domain.SelectDomainAction(d.ID),
		})
	}
	return []domain.Block{
		domain.Divider(),
		domain.Actions(elements...),
		domain.Context(DomainHint),
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
