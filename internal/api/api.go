// Package api exposes the operational HTTP surface of ONEDI.
//
// The conversation itself runs over WhatsApp; this server only carries the
// Twilio inbound webhook, health and stats probes, and the plan-activation
// callback used by the payment backend.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/flow"
	"github.com/IgorLuiz777/onedi-02/internal/store"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr          string
	TwilioWebhook http.HandlerFunc
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithTwilioWebhook mounts an inbound Twilio webhook handler at
// /webhooks/twilio.
func WithTwilioWebhook(h http.HandlerFunc) Option {
	return func(o *Opts) {
		o.TwilioWebhook = h
	}
}

// Server is the ONEDI HTTP server.
type Server struct {
	store    store.Store
	sessions *flow.SessionStore
	srv      *http.Server
}

// NewServer creates the HTTP server. It does not listen until Start.
func NewServer(st store.Store, sessions *flow.SessionStore, opts ...Option) *Server {
	var cfg Opts
	cfg.Addr = ":8080"
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{store: st, sessions: sessions}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/plans/activate", s.handleActivatePlan)
	if cfg.TwilioWebhook != nil {
		mux.HandleFunc("/webhooks/twilio", cfg.TwilioWebhook)
	}

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	slog.Info("API server listening", "addr", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server stopped", "error", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop API server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, okResponse(nil))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, okResponse(map[string]any{
		"active_sessions": s.sessions.Len(),
	}))
}

// activatePlanRequest is the payload posted by the payment backend once a
// subscription is confirmed.
type activatePlanRequest struct {
	Phone     string   `json:"phone"`
	PlanID    int64    `json:"plan_id"`
	Languages []string `json:"languages"`
}

func (s *Server) handleActivatePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
		return
	}

	var req activatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.handleActivatePlan: invalid payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, errorResponse("invalid JSON payload"))
		return
	}
	if req.Phone == "" || req.PlanID <= 0 {
		writeJSONResponse(w, http.StatusBadRequest, errorResponse("phone and plan_id are required"))
		return
	}

	if err := s.store.ActivatePlan(req.Phone, req.PlanID, req.Languages); err != nil {
		slog.Error("Server.handleActivatePlan: activation failed", "phone", req.Phone, "plan_id", req.PlanID, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, errorResponse("failed to activate plan"))
		return
	}

	// Drop any cached session so the next message rehydrates the new plan.
	s.sessions.Delete(req.Phone)

	slog.Info("Plan activated", "phone", req.Phone, "plan_id", req.PlanID, "languages", req.Languages)
	writeJSONResponse(w, http.StatusOK, okResponse(nil))
}
