package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
	"github.com/MikeSquared-Agency/coach/internal/inference"
	"github.com/MikeSquared-Agency/coach/internal/metrics"
)

const maxBodyBytes = 64 << 10

type Server struct {
	router       *chi.Mux
	registry     *Registry
	defaultToken string
	logger       *slog.Logger
	http         *http.Server
}

// Options configures a Server.
type Options struct {
	Port   int
	Client dialogue.Completer
	// Sinks receive every session event in addition to the HTTP response.
	Sinks []dialogue.EventSink
	// DefaultToken is used when a turn request carries no bearer token.
	DefaultToken string
	SessionTTL   time.Duration
	Logger       *slog.Logger
	// Controller holds extra options applied to every new session.
	Controller []dialogue.Option
	// Metrics, when set, is served on /metrics and receives the live
	// session gauge.
	Metrics *prometheus.Registry
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sink := append(dialogue.MultiSink{collectSink{}}, opts.Sinks...)
	registry := NewRegistry(opts.Client, sink, opts.SessionTTL, logger, opts.Controller...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:       router,
		registry:     registry,
		defaultToken: opts.DefaultToken,
		logger:       logger,
	}
	s.http = &http.Server{
		Addr:        fmt.Sprintf(":%d", opts.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Turns include up to three sequential inference calls.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	router.Get("/health", s.health)
	if opts.Metrics != nil {
		metrics.RegisterSessionGauge(opts.Metrics, registry.Len)
		router.Handle("/metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}))
	}
	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/turns", s.submitTurn)
			r.Post("/reset", s.resetSession)
		})
	})

	return s
}

// Start serves until Shutdown is called. It starts the idle-session sweeper
// bound to ctx.
func (s *Server) Start(ctx context.Context) error {
	s.registry.StartSweeper(ctx)

	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type sessionResponse struct {
	SessionID string                `json:"session_id"`
	State     dialogue.SessionState `json:"state"`
}

type turnRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	SessionID string                `json:"session_id"`
	Events    []dialogue.Event      `json:"events"`
	State     dialogue.SessionState `json:"state"`
	Error     string                `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Len(),
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	ctrl := s.registry.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: ctrl.ID(), State: ctrl.State()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: ctrl.ID(), State: ctrl.State()})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.registry.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ctrl.Reset()
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: ctrl.ID(), State: ctrl.State()})
}

func (s *Server) submitTurn(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req turnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	credential := bearerToken(r)
	if credential == "" {
		credential = s.defaultToken
	}

	ctx, col := withCollector(r.Context())
	err := ctrl.SubmitTurn(ctx, req.Message, credential)

	resp := turnResponse{
		SessionID: ctrl.ID(),
		Events:    col.list(),
		State:     ctrl.State(),
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		resp.Error = dialogue.UserMessage(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("turn failed", "session_id", ctrl.ID(), "status", status, "error", err)
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*dialogue.Controller, bool) {
	ctrl, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return ctrl, ok
}

// statusFor maps a SubmitTurn error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dialogue.ErrEmptyInput), errors.Is(err, dialogue.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.Is(err, dialogue.ErrBusy), errors.Is(err, dialogue.ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, inference.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, inference.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
