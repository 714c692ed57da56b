package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/chatsim"
	"github.com/aretw0/chatsim/internal/presentation/graph"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/aretw0/chatsim/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sessions is the part of the session manager the HTTP surface needs.
type Sessions interface {
	Mount(ctx context.Context, params domain.EntryParams) (ports.Conversation, error)
	Get(id string) (ports.Conversation, error)
	Unmount(ctx context.Context, id string) error
	List() []string
	Subscribe(id string) (<-chan domain.Snapshot, func(), error)
}

// Server serves the conversation API over a set of live sessions.
type Server struct {
	Sessions       Sessions
	AllowedOrigins []string
	MaxInputSize   int

	logger      *slog.Logger
	metricsPath string
	gatherer    prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithAllowedOrigins sets the origins allowed by CORS and the websocket
// handshake. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.AllowedOrigins = origins
	}
}

// WithMaxInputSize caps the size of free-text messages.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.MaxInputSize = n
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the gatherer in the Prometheus text format at path.
func WithMetrics(path string, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the given sessions.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions:       sessions,
		AllowedOrigins: []string{"*"},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.enableCORS(s.routes())
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.gatherer != nil && s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/actions", s.PostAction)
			r.Post("/messages", s.PostMessage)
			r.Post("/return", s.PostReturn)
			r.Post("/simulate/{integration}", s.PostSimulate)
			r.Post("/app-first", s.PostAppFirst)
			r.Get("/diagram", s.GetDiagram)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/ws", s.ServeWebSocket)
		})
	})
	return r
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowOrigin returns the value for Access-Control-Allow-Origin, or "" when
// the origin is not allowed.
func (s *Server) allowOrigin(origin string) string {
	if slices.Contains(s.AllowedOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>chatsim API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Mode      string   `json:"mode"`
	Connected []string `json:"connected"`
}

// ActionRequest is the body of POST /sessions/{id}/actions.
type ActionRequest struct {
	Action string `json:"action"`
}

// ActionResponse carries the intent produced by an action, if any.
type ActionResponse struct {
	Intent   *domain.Intent  `json:"intent,omitempty"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// ReturnRequest is the body of POST /sessions/{id}/return.
type ReturnRequest struct {
	Connected []string `json:"connected"`
}

// IntentResponse wraps a navigation intent.
type IntentResponse struct {
	Intent *domain.Intent `json:"intent"`
}

// CreateSession handles POST /sessions. Entry parameters come from the JSON
// body or, when the body is empty, from the flow and connected query values.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	params := domain.ParseEntryParams(r.URL.Query())
	if r.ContentLength != 0 {
		var body CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("CreateSession: Invalid request body", "err", err)
			return
		}
		params = domain.EntryParams{
			Mode:          domain.ParseEntryMode(body.Mode),
			JustConnected: body.Connected,
		}
	}

	conv, err := s.Sessions.Mount(r.Context(), params)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	s.logger.Info("Session created", "session_id", conv.ID(), "mode", params.Mode)
	s.writeJSON(w, http.StatusCreated, conv.Snapshot())
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, conv.Snapshot())
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Unmount(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostAction handles POST /sessions/{id}/actions.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostAction: Invalid request body", "err", err)
		return
	}

	intent, err := conv.Dispatch(r.Context(), body.Action)
	if err != nil {
		s.fail(w, "PostAction", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Intent: intent, Snapshot: conv.Snapshot()})
}

// PostMessage handles POST /sessions/{id}/messages. The reply arrives later,
// so the request is accepted rather than completed.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostMessage: Invalid request body", "err", err)
		return
	}

	text, err := runner.SanitizeInputWithLimit(body.Text, s.MaxInputSize)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn("PostMessage: Input rejected", "err", err, "size", len(body.Text))
		return
	}
	if err := conv.Send(r.Context(), text); err != nil {
		s.fail(w, "PostMessage", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, conv.Snapshot())
}

// PostReturn handles POST /sessions/{id}/return, the external report of
// integrations connected outside the chat.
func (s *Server) PostReturn(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostReturn: Invalid request body", "err", err)
		return
	}

	if err := conv.ObserveReturn(r.Context(), body.Connected); err != nil {
		s.fail(w, "PostReturn", err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv.Snapshot())
}

// PostSimulate handles POST /sessions/{id}/simulate/{integration}.
func (s *Server) PostSimulate(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := conv.SimulateConnect(r.Context(), chi.URLParam(r, "integration")); err != nil {
		s.fail(w, "PostSimulate", err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv.Snapshot())
}

// PostAppFirst handles POST /sessions/{id}/app-first.
func (s *Server) PostAppFirst(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	intent, err := conv.TryAppFirst(r.Context())
	if err != nil {
		s.fail(w, "PostAppFirst", err)
		return
	}
	s.writeJSON(w, http.StatusOK, IntentResponse{Intent: intent})
}

// GetDiagram handles GET /sessions/{id}/diagram with a Mermaid sequence
// diagram of the conversation so far.
func (s *Server) GetDiagram(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap := conv.Snapshot()
	diagram := graph.GenerateMermaid(snap.Conversation, &graph.Overlay{
		Connected: snap.ConnectedIntegrations,
		Selected:  snap.SelectedFocusDomains,
		Typing:    snap.IsTyping,
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(diagram))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "chatsim-http",
		"version":     strings.TrimSpace(chatsim.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (ports.Conversation, bool) {
	conv, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "Lookup", err)
		return nil, false
	}
	return conv, true
}

// fail maps engine errors to status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
		s.logger.Error(op+" failed", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
