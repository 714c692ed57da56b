package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/chatsim"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/aretw0/chatsim/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CatalogURI is the resource holding the integration and focus domain catalogs.
const CatalogURI = "chatsim://catalog"

// Sessions is the part of the session manager the MCP server needs.
type Sessions interface {
	Mount(ctx context.Context, params domain.EntryParams) (ports.Conversation, error)
	Get(id string) (ports.Conversation, error)
	Unmount(ctx context.Context, id string) error
}

// ConversationResponse is the structured result of every session tool.
// Transcript is the conversation as a terminal would print it, with the
// currently pressable buttons numbered at the end.
type ConversationResponse struct {
	SessionID  string           `json:"session_id" jsonschema_description:"Identifier of the session"`
	Intent     *domain.Intent   `json:"intent,omitempty" jsonschema_description:"Navigation requested by the action, if any"`
	Transcript string           `json:"transcript" jsonschema_description:"Human-readable conversation with numbered buttons"`
	Snapshot   *domain.Snapshot `json:"snapshot" jsonschema_description:"Full session state"`
}

// StartArgs are the arguments of start_session.
type StartArgs struct {
	Mode      string   `json:"mode"`
	Connected []string `json:"connected"`
}

// ClickArgs are the arguments of click.
type ClickArgs struct {
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
}

// MessageArgs are the arguments of send_message.
type MessageArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// SimulateArgs are the arguments of simulate_connect.
type SimulateArgs struct {
	SessionID   string `json:"session_id"`
	Integration string `json:"integration"`
}

// ReturnArgs are the arguments of external_return.
type ReturnArgs struct {
	SessionID string   `json:"session_id"`
	Connected []string `json:"connected"`
}

// SessionArgs identify a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server exposes conversation sessions as MCP tools.
type Server struct {
	sessions  Sessions
	catalog   domain.Catalog
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCatalog sets the catalog published as a resource. It should match
// the catalog the sessions are built with.
func WithCatalog(c domain.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		catalog:   domain.DefaultCatalog(),
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("chatsim-mcp", strings.TrimSpace(chatsim.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Open a new onboarding conversation. The assistant reveals its messages over a few seconds; poll get_conversation to follow."),
		mcp.WithString("mode", mcp.Description("Entry mode: standard (default) or onboarding")),
		mcp.WithArray("connected", mcp.WithStringItems(), mcp.Description("Integration ids reported as just connected")),
		mcp.WithOutputSchema[ConversationResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("click",
		mcp.WithDescription("Press a button by its action string, e.g. connect_meta, select_domain_seo, confirm_domains, open_billing."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action string of the button")),
		mcp.WithOutputSchema[ConversationResponse](),
	), mcp.NewStructuredToolHandler(s.handleClick))

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send a free-text message. The assistant replies after a short delay."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithOutputSchema[ConversationResponse](),
	), mcp.NewStructuredToolHandler(s.handleSend))

	s.mcpServer.AddTool(mcp.NewTool("simulate_connect",
		mcp.WithDescription("Mark an integration as connected without the sign-in flow."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("integration", mcp.Required(), mcp.Description("Integration id, see chatsim://catalog")),
		mcp.WithOutputSchema[ConversationResponse](),
	), mcp.NewStructuredToolHandler(s.handleSimulate))

	s.mcpServer.AddTool(mcp.NewTool("external_return",
		mcp.WithDescription("Report integrations connected outside the chat, as the sign-in flow would on return."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithArray("connected", mcp.Required(), mcp.WithStringItems(), mcp.Description("Integration ids")),
		mcp.WithOutputSchema[ConversationResponse](),
	), mcp.NewStructuredToolHandler(s.handleReturn))

	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Read the current conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[ConversationResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("Close the conversation and discard its state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), s.handleEnd)
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (ConversationResponse, error) {
	conv, err := s.sessions.Mount(ctx, domain.EntryParams{
		Mode:          domain.ParseEntryMode(args.Mode),
		JustConnected: args.Connected,
	})
	if err != nil {
		return ConversationResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return respond(conv, nil)
}

func (s *Server) handleClick(ctx context.Context, _ mcp.CallToolRequest, args ClickArgs) (ConversationResponse, error) {
	conv, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return ConversationResponse{}, err
	}
	intent, err := conv.Dispatch(ctx, args.Action)
	if err != nil {
		return ConversationResponse{}, fmt.Errorf("click failed: %w", err)
	}
	return respond(conv, intent)
}

func (s *Server) handleSend(ctx context.Context, _ mcp.CallToolRequest, args MessageArgs) (ConversationResponse, error) {
	conv, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return ConversationResponse{}, err
	}
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP send_message: Input rejected", "err", err, "size", len(args.Text))
		return ConversationResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if err := conv.Send(ctx, clean); err != nil {
		return ConversationResponse{}, fmt.Errorf("send failed: %w", err)
	}
	return respond(conv, nil)
}

func (s *Server) handleSimulate(ctx context.Context, _ mcp.CallToolRequest, args SimulateArgs) (ConversationResponse, error) {
	conv, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return ConversationResponse{}, err
	}
	if err := conv.SimulateConnect(ctx, args.Integration); err != nil {
		return ConversationResponse{}, fmt.Errorf("simulate failed: %w", err)
	}
	return respond(conv, nil)
}

func (s *Server) handleReturn(ctx context.Context, _ mcp.CallToolRequest, args ReturnArgs) (ConversationResponse, error) {
	conv, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return ConversationResponse{}, err
	}
	if err := conv.ObserveReturn(ctx, args.Connected); err != nil {
		return ConversationResponse{}, fmt.Errorf("external return failed: %w", err)
	}
	return respond(conv, nil)
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (ConversationResponse, error) {
	conv, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return ConversationResponse{}, err
	}
	return respond(conv, nil)
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("session_id", "")
	if err := s.sessions.Unmount(ctx, id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no session %q", id)), nil
		}
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("session %s ended", id)), nil
}

func respond(conv ports.Conversation, intent *domain.Intent) (ConversationResponse, error) {
	snap := conv.Snapshot()
	var buf bytes.Buffer
	if err := runner.NewPrinter(&buf, nil).Print(snap); err != nil {
		return ConversationResponse{}, err
	}
	return ConversationResponse{
		SessionID:  snap.SessionID,
		Intent:     intent,
		Transcript: strings.TrimLeft(buf.String(), "\n"),
		Snapshot:   &snap,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Integration and focus domain catalogs",
		mcp.WithMIMEType("application/json"),
	), s.readCatalog)
}

func (s *Server) readCatalog(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
