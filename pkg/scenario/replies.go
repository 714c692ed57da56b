package scenario

import (
	"strings"

	"github.com/aretw0/chatsim/pkg/domain"
)

const (
	closingStatement = "🚀 **I'll start by:**\n" +
		"• Analyzing your current setup\n" +
		"• Checking for any immediate issues\n" +
		"• Preparing an initial assessment\n\n" +
		"I'll message you when I find something interesting. In the meantime, feel free to ask me anything!"

	metaSummary = "📊 **Meta Ads Summary (Last 7 days)**\n\n" +
		"• Spend: $2,450 (+12% vs prev week)\n" +
		"• ROAS: 3.2x (target: 3.0x) ✅\n" +
		"• Impressions: 145K\n" +
		"• CTR: 1.8%\n\n" +
		"Your campaigns are performing well! I noticed the 'Summer Sale' ad set has a 4.1x ROAS — want me to suggest increasing its budget?"

	metaNudge = "I'd love to help with Meta Ads, but I'll need you to connect that integration first! Click the button above to get started."

	capabilityMenu = "I'm here to help! I can assist with:\n\n" +
		"• **Campaign monitoring** — \"How are my ads performing?\"\n" +
		"• **Optimization suggestions** — \"What should I improve?\"\n" +
		"• **Reports** — \"Give me a weekly summary\"\n" +
		"• **Content ideas** — \"Suggest blog topics\"\n\n" +
		"What would you like to know?"
)

// ReturnAnnouncement is the user-side message stating which integrations an
// external flow just connected.
func ReturnAnnouncement(cat domain.Catalog, ids []string) domain.MessageTemplate {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = cat.IntegrationName(id)
	}
	return domain.MessageTemplate{
		Sender: domain.SenderUser,
		Text:   "Connected " + strings.Join(names, ", ") + " ✓",
	}
}

// SelectionAnnouncement is the user-side message listing the confirmed
// focus domains. Unknown ids are left out.
func SelectionAnnouncement(cat domain.Catalog, selected []string) domain.MessageTemplate {
	var names []string
	for _, id := range selected {
		if d, ok := cat.Domain(id); ok {
			names = append(names, d.Name)
		}
	}
	return domain.MessageTemplate{
		Sender: domain.SenderUser,
		Text:   "Let's focus on: " + strings.Join(names, ", "),
	}
}

// ConfirmationSummary lists one commitment per known selected domain, in
// selection order, followed by the next steps.
func ConfirmationSummary(cat domain.Catalog, selected []string) domain.MessageTemplate {
	var lines []string
	for _, id := range selected {
		if d, ok := cat.Domain(id); ok {
			lines = append(lines, "• "+d.Commitment)
		}
	}
	return domain.MessageTemplate{
		Sender: domain.SenderAssistant,
		Text: "Perfect! I'm now set up to help you with:\n\n" +
			strings.Join(lines, "\n") + "\n\n" + closingStatement,
	}
}

type keywordRule struct {
	keywords []string
	reply    func(cat domain.Catalog, connected []string) domain.MessageTemplate
}

// rules are evaluated in order; the first match wins.
var rules = []keywordRule{
	{
		keywords: []string{"billing", "upgrade"},
		reply: func(domain.Catalog, []string) domain.MessageTemplate {
			return domain.MessageTemplate{
				Sender: domain.SenderAssistant,
				Text:   "You can manage your billing and subscription here:",
				Blocks: []domain.Block{
					domain.Actions(domain.Element{
						Label:  "💳 Open Billing",
						Style:  domain.StylePrimary,
						Action: domain.ActionOpenBilling,
						URL:    domain.BillingPath,
					}),
				},
			}
		},
	},
	{
		keywords: []string{"meta", "ads"},
		reply: func(_ domain.Catalog, connected []string) domain.MessageTemplate {
			if containsID(connected, "meta") {
				return assistant(metaSummary)
			}
			return assistant(metaNudge)
		},
	},
}

// Reply picks the assistant answer to free text by case-insensitive
// substring matching.
func Reply(cat domain.Catalog, connected []string, text string) domain.MessageTemplate {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply(cat, connected)
			}
		}
	}
	return assistant(capabilityMenu)
}
