package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/chatsim/pkg/domain"
)

// Display names of the two senders.
const (
	AssistantName = "Marko"
	UserName      = "You"
)

// Printer writes the new parts of successive snapshots to a terminal.
type Printer struct {
	out      io.Writer
	render   ContentRenderer
	seen     map[string]bool
	typing   bool
	buttons  []domain.Element
	lastView string
}

// NewPrinter creates a printer. render may be nil for plain text.
func NewPrinter(out io.Writer, render ContentRenderer) *Printer {
	return &Printer{
		out:    out,
		render: render,
		seen:   make(map[string]bool),
	}
}

// Print writes the messages not printed yet, the typing indicator and the
// numbered buttons when they changed.
func (p *Printer) Print(snap domain.Snapshot) error {
	for _, m := range snap.Conversation {
		if p.seen[m.ID] {
			continue
		}
		p.seen[m.ID] = true
		if err := p.printMessage(m); err != nil {
			return err
		}
	}

	if snap.IsTyping && !p.typing {
		fmt.Fprintf(p.out, "%s is typing…\n", AssistantName)
	}
	p.typing = snap.IsTyping

	p.printButtons(snap)
	return nil
}

// Button returns the element numbered n in the last printed button list.
func (p *Printer) Button(n int) (domain.Element, bool) {
	if n < 1 || n > len(p.buttons) {
		return domain.Element{}, false
	}
	return p.buttons[n-1], true
}

func (p *Printer) printMessage(m domain.Message) error {
	name := UserName
	if m.Sender == domain.SenderAssistant {
		name = AssistantName + " APP"
	}
	fmt.Fprintf(p.out, "\n%s  %s\n", name, m.Timestamp)

	text, err := p.format(m.Text)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, text)

	for _, b := range m.Blocks {
		switch b.Type {
		case domain.BlockDivider:
			fmt.Fprintln(p.out, strings.Repeat("─", 32))
		case domain.BlockSection:
			text, err := p.format(b.Text)
			if err != nil {
				return err
			}
			fmt.Fprintln(p.out, text)
		case domain.BlockContext:
			fmt.Fprintf(p.out, "  %s\n", b.Text)
		}
	}
	return nil
}

// printButtons numbers the buttons of every actionable message, oldest
// first, so an earlier prompt stays reachable after a later reply. A
// repeated action keeps its first number.
func (p *Printer) printButtons(snap domain.Snapshot) {
	var b strings.Builder
	p.buttons = p.buttons[:0]
	listed := make(map[string]bool)
	add := func(el domain.Element, mark string) {
		if listed[el.Action] {
			return
		}
		listed[el.Action] = true
		p.buttons = append(p.buttons, el)
		fmt.Fprintf(&b, "  [%d] %s %s\n", len(p.buttons), mark, el.Label)
	}

	for _, m := range snap.Conversation {
		if !m.HasActions() {
			continue
		}
		buttons, confirm := snap.Buttons(m)
		for _, bv := range buttons {
			mark := " "
			if bv.Selected {
				mark = "✓"
			}
			add(bv.Element, mark)
		}
		if confirm != nil {
			add(*confirm, " ")
		}
	}

	view := b.String()
	if view != p.lastView {
		fmt.Fprint(p.out, view)
		p.lastView = view
	}
}

func (p *Printer) format(text string) (string, error) {
	if p.render == nil || text == "" {
		return text, nil
	}
	out, err := p.render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}
