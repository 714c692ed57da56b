package observability

import (
	"log/slog"

	"github.com/aretw0/chatsim/pkg/domain"
)

// LogHooks returns hooks that write every event as a debug log line.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvent: func(e domain.Event) {
			attrs := []any{
				"session_id", e.SessionID,
				"mode", e.Mode,
			}
			if e.MessageID != "" {
				attrs = append(attrs, "message_id", e.MessageID)
			}
			if e.Turn > 0 {
				attrs = append(attrs, "turn", e.Turn)
			}
			if e.Reason != "" {
				attrs = append(attrs, "reason", e.Reason)
			}
			if e.Intent != nil {
				attrs = append(attrs, "intent", e.Intent.URL())
			}
			logger.Debug(string(e.Type), attrs...)
		},
	}
}
