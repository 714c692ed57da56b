package scenario

import (
	"fmt"

	"github.com/aretw0/chatsim/pkg/domain"
)

// ComposeIntegrationMessage computes the assistant message that reflects the
// connected set. It depends only on its arguments.
func ComposeIntegrationMessage(cat domain.Catalog, connected []string) domain.MessageTemplate {
	count := 0
	for _, in := range cat.Integrations {
		if containsID(connected, in.ID) {
			count++
		}
	}

	if len(cat.Integrations) > 0 && count == len(cat.Integrations) {
		return domain.MessageTemplate{
			Sender: domain.SenderAssistant,
			Text:   "✅ All integrations connected! Now, which areas would you like me to focus on?",
			Blocks: domainSelectionBlocks(cat),
		}
	}

	remaining := connectButtons(cat, connected)
	if len(remaining) == 0 {
		return domain.MessageTemplate{
			Sender: domain.SenderAssistant,
			Text:   fmt.Sprintf("Great! %d integration(s) connected.", count),
		}
	}

	return domain.MessageTemplate{
		Sender: domain.SenderAssistant,
		Text:   fmt.Sprintf("Great! %d integration(s) connected. You can still connect more:", count),
		Blocks: []domain.Block{
			domain.Actions(remaining...),
			domain.Context(ConnectHint),
		},
	}
}
