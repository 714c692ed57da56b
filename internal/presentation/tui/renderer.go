package tui

import (
	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the column chat messages wrap at.
const DefaultWordWrap = 80

// NewRenderer returns a function that renders markdown using glamour.
// It detects a light or dark background automatically.
func NewRenderer() func(string) (string, error) {
	return NewRendererWithStyle("", DefaultWordWrap)
}

// NewRendererWithStyle renders with a named glamour style ("dark", "light",
// "notty", ...). An empty style auto-detects.
func NewRendererWithStyle(style string, wrap int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
