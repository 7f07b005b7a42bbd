// Copyright (c) Microsoft. All rights reserved.

// Package devui serves agent-framework agents over HTTP for local
// development: entity discovery, invocation with conversation sessions,
// health and metrics.
package devui

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

// InvokeRequest is the JSON body for POST /v1/entities/{id}/invoke.
type InvokeRequest struct {
	Input          string `json:"input"`
	ConversationID string `json:"conversationId,omitempty"`
}

// InvokeResponse is returned from a successful invocation. ConversationID
// is generated when the request carried none.
type InvokeResponse struct {
	Output         string `json:"output"`
	ConversationID string `json:"conversationId"`
}

// Entity describes one served agent.
type Entity struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// Server is the HTTP handler for a set of agents.
type Server struct {
	entities []Entity
	agents   map[string]*af.Agent
	apiKey   string
	logger   *slog.Logger

	mu            sync.Mutex
	conversations map[string]*conversation
	mux           *http.ServeMux
}

// conversation serialises turns so each run sees the previous reply.
type conversation struct {
	mu      sync.Mutex
	session *af.Session
}

// Option configures a [Server].
type Option func(*Server)

// WithAPIKey requires "Authorization: Bearer <key>" on invocations and on
// handlers mounted with [WithHandler]. /health and /v1/entities stay open.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHandler mounts h at pattern, e.g. "GET /metrics", behind the API key.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) { s.mux.Handle(pattern, s.requireAuth(h)) }
}

// New creates a server for agents. Agent IDs are their names mapped to the
// tool-name alphabet and must be unique.
func New(agents []*af.Agent, opts ...Option) (*Server, error) {
	s := &Server{
		agents:        make(map[string]*af.Agent, len(agents)),
		logger:        slog.Default(),
		conversations: make(map[string]*conversation),
		mux:           http.NewServeMux(),
	}
	for _, a := range agents {
		id := af.ToolName(a.Name())
		if _, dup := s.agents[id]; dup {
			return nil, fmt.Errorf("duplicate entity %q", id)
		}
		s.agents[id] = a
		e := Entity{ID: id, Name: a.Name(), Description: a.Description()}
		for _, t := range a.Tools() {
			e.Tools = append(e.Tools, t.Name())
		}
		for _, sub := range a.SubAgents() {
			e.Tools = append(e.Tools, af.ToolName(sub.Name()))
		}
		s.entities = append(s.entities, e)
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /v1/entities", s.handleEntities)
	s.mux.HandleFunc("POST /v1/entities/{id}/invoke", s.handleInvoke)
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.DebugContext(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEntities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entities": s.entities})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.authorized(r) {
		s.unauthorized(w, r)
		return
	}

	id := r.PathValue("id")
	agent, ok := s.agents[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown entity " + id})
		return
	}

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input is required"})
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	conv := s.conversation(agent, id, req.ConversationID)
	conv.mu.Lock()
	resp, err := agent.Run(ctx, []af.Message{af.NewUserMessage(req.Input)}, af.WithSession(conv.session))
	conv.mu.Unlock()
	if err != nil {
		s.logger.ErrorContext(ctx, "agent run failed", "entity", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "agent execution failed"})
		return
	}

	s.logger.InfoContext(ctx, "invoke completed",
		"entity", id,
		"conversation", req.ConversationID,
		"output_bytes", len(resp.Text()),
	)
	writeJSON(w, http.StatusOK, InvokeResponse{Output: resp.Text(), ConversationID: req.ConversationID})
}

func (s *Server) conversation(agent *af.Agent, id, conversationID string) *conversation {
	key := id + "/" + conversationID
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[key]
	if !ok {
		c = &conversation{session: agent.NewSession()}
		s.conversations[key] = c
	}
	return c
}

func (s *Server) requireAuth(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.unauthorized(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "unauthorized request", "path", r.URL.Path, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}

// authorized reports whether r carries the API key; without a key every
// request is authorized.
func (s *Server) authorized(r *http.Request) bool {
	if s.apiKey == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
