package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatsim/pkg/domain"
)

// Overlay contains live session data to visualize on the diagram.
type Overlay struct {
	Connected []string
	Selected  []string
	Typing    bool
}

// GenerateMermaid produces a Mermaid sequence diagram of a conversation.
// Assistant messages flow Marko -> You, user messages the other way; each
// actions block becomes a note listing its buttons and the action strings
// they dispatch.
func GenerateMermaid(messages []domain.Message, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("sequenceDiagram\n")
	sb.WriteString("    participant M as Marko\n")
	sb.WriteString("    participant U as You\n")

	for _, m := range messages {
		from, to := "M", "U"
		if m.Sender == domain.SenderUser {
			from, to = "U", "M"
		}
		sb.WriteString(fmt.Sprintf("    %s->>%s: %s\n", from, to, summarize(m.Text)))

		for _, b := range m.Blocks {
			if b.Type != domain.BlockActions {
				continue
			}
			var buttons []string
			for _, el := range b.Elements {
				buttons = append(buttons, fmt.Sprintf("%s (%s)", sanitizeLabel(el.Label), el.Action))
			}
			sb.WriteString(fmt.Sprintf("    Note over %s: %s\n", from, strings.Join(buttons, "<br/>")))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Session State\n")
		if len(overlay.Connected) > 0 {
			sb.WriteString(fmt.Sprintf("    Note over M,U: connected: %s\n", strings.Join(overlay.Connected, ", ")))
		}
		if len(overlay.Selected) > 0 {
			sb.WriteString(fmt.Sprintf("    Note over M,U: focus: %s\n", strings.Join(overlay.Selected, ", ")))
		}
		if overlay.Typing {
			sb.WriteString("    Note over M: typing…\n")
		}
	}

	return sb.String()
}

// summarize keeps the first line of a message, safe for a Mermaid label.
func summarize(text string) string {
	line, _, more := strings.Cut(text, "\n")
	line = sanitizeLabel(line)
	if more {
		line += " …"
	}
	return line
}

func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, ";", ",")
	s = strings.ReplaceAll(s, "#", "")
	return strings.TrimSpace(s)
}
