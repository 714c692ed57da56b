package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/aretw0/chatsim/pkg/runner"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
)

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// Each event carries the SnapshotDiff since the previous one; the first is
// the full snapshot. The optional "watch" query value filters diffs by
// field group: conversation, typing, connected, selection.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	updates, cancel, err := s.Sessions.Subscribe(sessionID)
	if err != nil {
		s.fail(w, "SubscribeEvents", err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to session updates", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watchList = domain.SplitList(v)
	}

	var prev *domain.Snapshot
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case snap, ok := <-updates:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", sessionID)
				flusher.Flush()
				return
			}
			diff := domain.Diff(prev, &snap)
			prev = &snap
			if diff == nil || !watched(diff, watchList) {
				continue
			}
			payload, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: Diff encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// watched reports whether the diff touches any of the watched field groups.
// An empty list watches everything.
func watched(diff *domain.SnapshotDiff, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "conversation":
			if len(diff.Appended) > 0 || len(diff.Removed) > 0 || diff.RevealedTurnIndex != nil {
				return true
			}
		case "typing":
			if diff.IsTyping != nil {
				return true
			}
		case "connected":
			if diff.ConnectedIntegrations != nil {
				return true
			}
		case "selection":
			if diff.SelectedFocusDomains != nil || diff.FocusConfirmed != nil {
				return true
			}
		}
	}
	return false
}

// wsMessage is the frame exchanged on the websocket.
// Clients send action, text, simulate or return frames; the server sends
// snapshot, intent and error frames.
type wsMessage struct {
	Type     string           `json:"type"`
	Value    string           `json:"value,omitempty"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	Intent   *domain.Intent   `json:"intent,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// ServeWebSocket handles GET /sessions/{id}/ws. The server pushes every
// snapshot of the session and applies the commands the client sends.
func (s *Server) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	updates, unsubscribe, err := s.Sessions.Subscribe(sessionID)
	if err != nil {
		s.fail(w, "ServeWebSocket", err)
		return
	}
	defer unsubscribe()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.Error("Failed to accept WebSocket", "err", err, "session_id", sessionID)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "session ended")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		s.inputLoop(ctx, ws, conv)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				ws.Close(websocket.StatusGoingAway, "session unmounted")
				return
			}
			if err := wsjson.Write(ctx, ws, wsMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
				s.logger.Debug("WebSocket write error", "err", err, "session_id", sessionID)
				return
			}
		}
	}
}

func (s *Server) inputLoop(ctx context.Context, ws *websocket.Conn, conv ports.Conversation) {
	for {
		var msg wsMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				s.logger.Debug("WebSocket closed by client", "session_id", conv.ID())
			} else if ctx.Err() == nil {
				s.logger.Warn("WebSocket read error", "err", err, "session_id", conv.ID())
			}
			return
		}

		reply, err := s.apply(ctx, conv, msg)
		if err != nil {
			reply = &wsMessage{Type: "error", Error: err.Error()}
		}
		if reply == nil {
			continue
		}
		if err := wsjson.Write(ctx, ws, reply); err != nil {
			s.logger.Debug("WebSocket write error", "err", err, "session_id", conv.ID())
			return
		}
	}
}

// apply runs one client frame against the session. The snapshot stream
// reports the effect; only intents need a direct reply.
func (s *Server) apply(ctx context.Context, conv ports.Conversation, msg wsMessage) (*wsMessage, error) {
	switch msg.Type {
	case "action":
		intent, err := conv.Dispatch(ctx, msg.Value)
		if err != nil || intent == nil {
			return nil, err
		}
		return &wsMessage{Type: "intent", Intent: intent}, nil
	case "text":
		text, err := runner.SanitizeInputWithLimit(msg.Value, s.MaxInputSize)
		if err != nil {
			return nil, err
		}
		return nil, conv.Send(ctx, text)
	case "simulate":
		return nil, conv.SimulateConnect(ctx, msg.Value)
	case "return":
		return nil, conv.ObserveReturn(ctx, domain.SplitList(msg.Value))
	case "ping":
		return &wsMessage{Type: "pong"}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", msg.Type)
	}
}

// originPatterns converts the allowed origins into host patterns for the
// websocket handshake.
func (s *Server) originPatterns() []string {
	patterns := make([]string, 0, len(s.AllowedOrigins))
	for _, origin := range s.AllowedOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
