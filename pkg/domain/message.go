package domain

import "strings"

// Sender identifies who authored a conversation entry.
type Sender string

const (
	SenderAssistant Sender = "assistant"
	SenderUser      Sender = "user"
)

// BlockType tags the variant held by a Block.
type BlockType string

const (
	BlockDivider BlockType = "divider"
	BlockSection BlockType = "section"
	BlockActions BlockType = "actions"
	BlockContext BlockType = "context"
)

// ElementStyle controls how a button is emphasized by the render surface.
type ElementStyle string

const (
	StyleDefault ElementStyle = "default"
	StylePrimary ElementStyle = "primary"
)

// Element is a single interactive button inside an actions block.
// Action is the only coupling between the block and the interaction handler.
type Element struct {
	Label  string       `json:"label" yaml:"label"`
	Style  ElementStyle `json:"style,omitempty" yaml:"style,omitempty"`
	Action string       `json:"action" yaml:"action"`
	URL    string       `json:"url,omitempty" yaml:"url,omitempty"`
}

// Block is a structured, renderable unit attached to a message.
// Text is used by section and context blocks, Elements by actions blocks.
type Block struct {
	Type     BlockType `json:"type" yaml:"type"`
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	Elements []Element `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// Divider returns a divider block.
func Divider() Block { return Block{Type: BlockDivider} }

// Section returns a section block with the given text.
func Section(text string) Block { return Block{Type: BlockSection, Text: text} }

// Context returns a context (hint) block with the given text.
func Context(text string) Block { return Block{Type: BlockContext, Text: text} }

// Actions returns an actions block holding the given elements in order.
func Actions(elements ...Element) Block {
	return Block{Type: BlockActions, Elements: elements}
}

// MessageTemplate is an unrevealed message: script and composer output
// before an id and timestamp are assigned.
type MessageTemplate struct {
	Sender Sender  `json:"sender" yaml:"sender"`
	Text   string  `json:"text" yaml:"text"`
	Blocks []Block `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

// Message is one entry of the conversation.
type Message struct {
	ID        string  `json:"id"`
	Sender    Sender  `json:"sender"`
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp"`
	Turn      int     `json:"turn"`
	Blocks    []Block `json:"blocks,omitempty"`
}

// HasActions reports whether the message holds at least one actions block.
func (m Message) HasActions() bool {
	for _, b := range m.Blocks {
		if b.Type == BlockActions {
			return true
		}
	}
	return false
}

// HasActionPrefix reports whether any element of any actions block carries
// an action starting with prefix.
func (m Message) HasActionPrefix(prefix string) bool {
	for _, b := range m.Blocks {
		if b.Type != BlockActions {
			continue
		}
		for _, el := range b.Elements {
			if strings.HasPrefix(el.Action, prefix) {
				return true
			}
		}
	}
	return false
}

// IsIntegrationPrompt reports whether m is an unresolved integration prompt.
func IsIntegrationPrompt(m Message) bool {
	return m.HasActionPrefix(ActionConnectPrefix)
}

// IsComposedPrompt reports whether m is a prompt the integration composer
// can produce: the connect prompt or, once everything is connected, the
// focus-domain selection.
func IsComposedPrompt(m Message) bool {
	return m.HasActionPrefix(ActionConnectPrefix) || m.HasActionPrefix(ActionSelectDomainPrefix)
}

// HoldsActions is the predicate form of Message.HasActions.
func HoldsActions(m Message) bool {
	return m.HasActions()
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.Blocks = cloneBlocks(m.Blocks)
	return m
}

func cloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		if b.Elements != nil {
			out[i].Elements = append([]Element(nil), b.Elements...)
		}
	}
	return out
}

// Conversation is the ordered, append-only message history of a session.
type Conversation []Message

// Append returns the conversation with m added at the end.
func (c Conversation) Append(m Message) Conversation {
	return append(c, m)
}

// Supersede removes every message matching match and appends m.
// Applying it again with the same m leaves the conversation unchanged.
func (c Conversation) Supersede(match func(Message) bool, m Message) Conversation {
	out := make(Conversation, 0, len(c)+1)
	for _, existing := range c {
		if match(existing) {
			continue
		}
		out = append(out, existing)
	}
	return append(out, m)
}

// Count returns how many messages match the predicate.
func (c Conversation) Count(match func(Message) bool) int {
	n := 0
	for _, m := range c {
		if match(m) {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return Conversation{}
	}
	out := make(Conversation, len(c))
	for i, m := range c {
		out[i] = m.Clone()
	}
	return out
}
