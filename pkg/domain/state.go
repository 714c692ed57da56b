package domain

import (
	"net/url"
	"strings"
)

// EntryMode selects the scenario script.
type EntryMode string

const (
	ModeStandard   EntryMode = "standard"
	ModeOnboarding EntryMode = "onboarding"
)

// ParseEntryMode maps a navigation flag to an EntryMode.
// Anything unrecognized falls back to ModeStandard.
func ParseEntryMode(s string) EntryMode {
	if EntryMode(strings.ToLower(strings.TrimSpace(s))) == ModeOnboarding {
		return ModeOnboarding
	}
	return ModeStandard
}

// EntryParams are the read-only values carried by navigation into a mount.
type EntryParams struct {
	Mode          EntryMode `json:"mode"`
	JustConnected []string  `json:"connected,omitempty"`
}

// ParseEntryParams reads the "flow" and "connected" query parameters.
func ParseEntryParams(q url.Values) EntryParams {
	return EntryParams{
		Mode:          ParseEntryMode(q.Get("flow")),
		JustConnected: SplitList(q.Get("connected")),
	}
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SessionState is the mutable state of one mounted conversation.
type SessionState struct {
	Conversation          Conversation `json:"conversation"`
	RevealedTurnIndex     int          `json:"revealed_turn_index"`
	IsTyping              bool         `json:"is_typing"`
	ConnectedIntegrations []string     `json:"connected_integrations"`
	SelectedFocusDomains  []string     `json:"selected_focus_domains"`
	FocusConfirmed        bool         `json:"focus_confirmed"`
	ExternalReturnApplied bool         `json:"external_return_applied"`
}

// IsConnected reports whether the integration has been recorded.
func (s *SessionState) IsConnected(id string) bool {
	return contains(s.ConnectedIntegrations, id)
}

// IsSelected reports whether the focus domain is in the selection.
func (s *SessionState) IsSelected(id string) bool {
	return contains(s.SelectedFocusDomains, id)
}

// Clone returns a deep copy of the state.
func (s *SessionState) Clone() SessionState {
	c := *s
	c.Conversation = s.Conversation.Clone()
	c.ConnectedIntegrations = append([]string{}, s.ConnectedIntegrations...)
	c.SelectedFocusDomains = append([]string{}, s.SelectedFocusDomains...)
	return c
}

// Snapshot is a point-in-time copy of a session, safe to hand to renderers.
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	Mode         EntryMode `json:"mode"`
	ScriptLength int       `json:"script_length"`
	SessionState
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
