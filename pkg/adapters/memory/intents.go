package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/chatsim/pkg/domain"
)

// DefaultIntentLogSize bounds the number of retained entries.
const DefaultIntentLogSize = 256

// IntentRecord is one delivered navigation intent.
type IntentRecord struct {
	SessionID string        `json:"session_id"`
	Intent    domain.Intent `json:"intent"`
	At        time.Time     `json:"at"`
}

// IntentLog implements ports.IntentSink in memory, keeping the most recent
// entries. Safe for concurrent use.
type IntentLog struct {
	mu      sync.RWMutex
	entries []IntentRecord
	limit   int
	now     func() time.Time
}

// NewIntentLog creates a log retaining up to limit entries.
// A non-positive limit uses DefaultIntentLogSize.
func NewIntentLog(limit int) *IntentLog {
	if limit <= 0 {
		limit = DefaultIntentLogSize
	}
	return &IntentLog{limit: limit, now: time.Now}
}

// Publish records the intent.
func (l *IntentLog) Publish(ctx context.Context, sessionID string, intent domain.Intent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, IntentRecord{SessionID: sessionID, Intent: intent, At: l.now()})
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append([]IntentRecord(nil), l.entries[over:]...)
	}
	return nil
}

// Entries returns the retained records for sessionID, oldest first.
// An empty sessionID returns every record.
func (l *IntentLog) Entries(sessionID string) []IntentRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []IntentRecord{}
	for _, r := range l.entries {
		if sessionID == "" || r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out
}

// Last returns the most recent intent delivered for sessionID.
func (l *IntentLog) Last(sessionID string) (domain.Intent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].SessionID == sessionID {
			return l.entries[i].Intent, true
		}
	}
	return domain.Intent{}, false
}
