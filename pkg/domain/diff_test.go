package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func msg(id string) Message {
	return Message{ID: id, Sender: SenderAssistant, Text: "text " + id}
}

func TestDiff(t *testing.T) {
	typing := true
	idle := false

	tests := []struct {
		name     string
		old      *Snapshot
		new      *Snapshot
		wantDiff *SnapshotDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &Snapshot{
				SessionID: "sess-1",
				SessionState: SessionState{
					Conversation:          Conversation{msg("a")},
					RevealedTurnIndex:     1,
					ConnectedIntegrations: []string{},
					SelectedFocusDomains:  []string{},
				},
			},
			wantDiff: &SnapshotDiff{
				SessionID: "sess-1",
				Appended:  []Message{msg("a")},
				IsTyping:  &idle,
			},
		},
		{
			name: "No Changes",
			old: &Snapshot{
				SessionID:    "sess-1",
				SessionState: SessionState{Conversation: Conversation{msg("a")}, RevealedTurnIndex: 1},
			},
			new: &Snapshot{
				SessionID:    "sess-1",
				SessionState: SessionState{Conversation: Conversation{msg("a")}, RevealedTurnIndex: 1},
			},
			wantDiff: nil,
		},
		{
			name: "Typing Started",
			old:  &Snapshot{SessionID: "sess-1"},
			new: &Snapshot{
				SessionID:    "sess-1",
				SessionState: SessionState{IsTyping: true},
			},
			wantDiff: &SnapshotDiff{SessionID: "sess-1", IsTyping: &typing},
		},
		{
			name: "Supersede",
			old: &Snapshot{
				SessionID:    "sess-1",
				SessionState: SessionState{Conversation: Conversation{msg("a"), msg("prompt")}},
			},
			new: &Snapshot{
				SessionID:    "sess-1",
				SessionState: SessionState{Conversation: Conversation{msg("a"), msg("prompt-2")}},
			},
			wantDiff: &SnapshotDiff{
				SessionID: "sess-1",
				Appended:  []Message{msg("prompt-2")},
				Removed:   []string{"prompt"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Appended, tt.wantDiff.Appended) {
				t.Errorf("Diff().Appended = %v, want %v", got.Appended, tt.wantDiff.Appended)
			}
			if !reflect.DeepEqual(got.Removed, tt.wantDiff.Removed) {
				t.Errorf("Diff().Removed = %v, want %v", got.Removed, tt.wantDiff.Removed)
			}
			if !equalPtr(got.IsTyping, tt.wantDiff.IsTyping) {
				t.Errorf("Diff().IsTyping = %v, want %v", got.IsTyping, tt.wantDiff.IsTyping)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Unchanged Fields Omitted", func(t *testing.T) {
		s1 := &Snapshot{SessionID: "s", SessionState: SessionState{IsTyping: false}}
		s2 := &Snapshot{SessionID: "s", SessionState: SessionState{IsTyping: true}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"appended"`) {
			t.Errorf("JSON should not contain 'appended' when empty, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"is_typing":true`) {
			t.Errorf("JSON should contain is_typing, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
