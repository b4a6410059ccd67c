// Package mcp exposes a store to Model Context Protocol clients: agents read
// the state, list the accepted actions and send them.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/composable"
	"github.com/aretw0/composable/internal/logging"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/ports"
)

// StateURI is the resource holding the current snapshot.
const StateURI = "composable://state"

// Server wraps an Endpoint as an MCP server.
type Server struct {
	endpoint  ports.Endpoint
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(endpoint ports.Endpoint, opts ...Option) *Server {
	s := &Server{
		endpoint:  endpoint,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("composable-mcp", strings.TrimSpace(composable.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for embedding into other transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state snapshot of the store."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.endpoint.Snapshot())
	})

	s.mcpServer.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the actions send_action accepts, with their payload schema."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.endpoint.Actions())
	})

	s.mcpServer.AddTool(mcp.NewTool("send_action",
		mcp.WithDescription("Send an action to the store and return the resulting state."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Registered action name, see list_actions")),
		mcp.WithObject("payload", mcp.Description("Action payload (object or JSON string)")),
	), s.handleSendAction)
}

func (s *Server) handleSendAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	req := domain.ActionRequest{}
	req.Type, _ = args["type"].(string)
	if req.Type == "" {
		return mcp.NewToolResultError("type is required"), nil
	}

	switch p := args["payload"].(type) {
	case nil:
	case map[string]any:
		req.Payload = p
	case string:
		if p != "" {
			if err := json.Unmarshal([]byte(p), &req.Payload); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("payload is not a JSON object: %v", err)), nil
			}
		}
	default:
		return mcp.NewToolResultError("payload must be an object"), nil
	}

	snap, err := s.endpoint.Dispatch(ctx, req)
	if err != nil {
		if !errors.Is(err, domain.ErrUnknownAction) {
			s.logger.Warn("MCP send_action: rejected", "type", req.Type, "err", err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(domain.ActionResponse{Accepted: true, Snapshot: &snap})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Current State",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.endpoint.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
