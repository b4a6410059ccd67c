// Package http serves a store over HTTP: state reads, action posts, a
// server-sent event stream of snapshots and a bidirectional websocket.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/aretw0/composable"
	"github.com/aretw0/composable/internal/logging"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/ports"
)

// Server exposes one Endpoint.
type Server struct {
	Endpoint ports.Endpoint

	logger   *slog.Logger
	metrics  http.Handler
	upgrader websocket.Upgrader
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the logger for request and stream events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for endpoint.
func NewHandler(endpoint ports.Endpoint, opts ...Option) http.Handler {
	server := &Server{
		Endpoint: endpoint,
		logger:   logging.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/state", server.GetState)
	r.Get("/actions", server.ListActions)
	r.Post("/actions", server.SendAction)
	r.Get("/events", server.SubscribeEvents)
	r.Get("/ws", server.Connect)
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":      "composable-http",
		"version":  strings.TrimSpace(composable.Version),
		"store_id": s.Endpoint.ID(),
	})
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Endpoint.Snapshot())
}

// ListActions handles the GET /actions request.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Endpoint.Actions())
}

// SendAction handles the POST /actions request.
func (s *Server) SendAction(w http.ResponseWriter, r *http.Request) {
	var req domain.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("SendAction: invalid request body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, domain.ActionResponse{Error: "invalid request body"})
		return
	}

	snap, err := s.Endpoint.Dispatch(r.Context(), req)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrUnknownAction) {
			status = http.StatusNotFound
		}
		s.logger.Warn("SendAction: rejected", "type", req.Type, "err", err)
		s.writeJSON(w, status, domain.ActionResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, domain.ActionResponse{Accepted: true, Snapshot: &snap})
}

// SubscribeEvents handles the GET /events request (SSE). The current snapshot
// is sent right after the ping, then one event per change; slow clients skip
// to the latest snapshot.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshots := s.Endpoint.Watch(r.Context())
	s.logger.Info("SSE: client subscribed", "store_id", s.Endpoint.ID())

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for snap := range snapshots {
		data, err := json.Marshal(snap)
		if err != nil {
			s.logger.Error("SSE: snapshot encode failed", "err", err)
			continue
		}
		fmt.Fprintf(w, "id: %d\ndata: %s\n\n", snap.Version, data)
		flusher.Flush()
	}
	s.logger.Info("SSE: client disconnected", "store_id", s.Endpoint.ID())
}

// Message is a frame sent to websocket clients.
type Message struct {
	Type     string           `json:"type"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Message types.
const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// Connect handles the GET /ws request. Clients receive snapshots as they are
// published and may send domain.ActionRequest frames; rejected requests are
// answered with an error frame.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WS: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	var mu sync.Mutex
	send := func(m Message) error {
		mu.Lock()
		defer mu.Unlock()
		return conn.WriteJSON(m)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	snapshots := s.Endpoint.Watch(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range snapshots {
			if err := send(Message{Type: MessageSnapshot, Snapshot: &snap}); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req domain.ActionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			_ = send(Message{Type: MessageError, Error: "invalid action request"})
			continue
		}
		if _, err := s.Endpoint.Dispatch(ctx, req); err != nil {
			_ = send(Message{Type: MessageError, Error: err.Error()})
		}
	}

	cancel()
	<-done
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
