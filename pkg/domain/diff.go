package domain

import (
	"slices"
)

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Appended holds messages that are new in the later snapshot, in order.
	Appended []Message `json:"appended,omitempty"`

	// Removed holds the ids of messages that were superseded.
	Removed []string `json:"removed,omitempty"`

	RevealedTurnIndex     *int      `json:"revealed_turn_index,omitempty"`
	IsTyping              *bool     `json:"is_typing,omitempty"`
	ConnectedIntegrations *[]string `json:"connected_integrations,omitempty"`
	SelectedFocusDomains  *[]string `json:"selected_focus_domains,omitempty"`
	FocusConfirmed        *bool     `json:"focus_confirmed,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: newSnap.SessionID}
	diff.Appended, diff.Removed = diffConversation(oldSnap, newSnap)

	if oldSnap == nil || oldSnap.RevealedTurnIndex != newSnap.RevealedTurnIndex {
		diff.RevealedTurnIndex = &newSnap.RevealedTurnIndex
	}
	if oldSnap == nil || oldSnap.IsTyping != newSnap.IsTyping {
		diff.IsTyping = &newSnap.IsTyping
	}
	if oldSnap == nil || oldSnap.FocusConfirmed != newSnap.FocusConfirmed {
		diff.FocusConfirmed = &newSnap.FocusConfirmed
	}
	if oldSnap == nil || !slices.Equal(oldSnap.ConnectedIntegrations, newSnap.ConnectedIntegrations) {
		diff.ConnectedIntegrations = &newSnap.ConnectedIntegrations
	}
	if oldSnap == nil || !slices.Equal(oldSnap.SelectedFocusDomains, newSnap.SelectedFocusDomains) {
		diff.SelectedFocusDomains = &newSnap.SelectedFocusDomains
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffConversation relies on message ids: a message is never edited in
// place, only appended or superseded.
func diffConversation(oldSnap, newSnap *Snapshot) ([]Message, []string) {
	if oldSnap == nil {
		if len(newSnap.Conversation) == 0 {
			return nil, nil
		}
		return newSnap.Conversation.Clone(), nil
	}

	oldIDs := make(map[string]struct{}, len(oldSnap.Conversation))
	for _, m := range oldSnap.Conversation {
		oldIDs[m.ID] = struct{}{}
	}
	newIDs := make(map[string]struct{}, len(newSnap.Conversation))
	var appended []Message
	for _, m := range newSnap.Conversation {
		newIDs[m.ID] = struct{}{}
		if _, ok := oldIDs[m.ID]; !ok {
			appended = append(appended, m.Clone())
		}
	}
	var removed []string
	for _, m := range oldSnap.Conversation {
		if _, ok := newIDs[m.ID]; !ok {
			removed = append(removed, m.ID)
		}
	}
	return appended, removed
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return len(d.Appended) == 0 &&
		len(d.Removed) == 0 &&
		d.RevealedTurnIndex == nil &&
		d.IsTyping == nil &&
		d.ConnectedIntegrations == nil &&
		d.SelectedFocusDomains == nil &&
		d.FocusConfirmed == nil
}
