package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRendererWithStyle(t *testing.T) {
	render := NewRendererWithStyle("dark", 60)
	out, err := render("**Paid Ads**: I'll monitor your campaigns")
	require.NoError(t, err)
	assert.Contains(t, out, "Paid Ads")
	assert.NotContains(t, out, "**")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "standard")
	assert.Contains(t, buf.String(), "standard · /help for commands")
}
