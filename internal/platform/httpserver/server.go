package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	pollmanager "pollgov/contexts/governance/poll-manager"
	_ "pollgov/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	polls   pollmanager.Module
	metrics http.Handler
	server  *http.Server
}

// New builds the API server. metrics may be nil, in which case /metrics is
// not served.
func New(
	polls pollmanager.Module,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		polls:   polls,
		metrics: metrics,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("POST /api/v1/polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /api/v1/polls/count", s.handlePollCount)
	s.mux.HandleFunc("GET /api/v1/polls/exists", s.handlePollExists)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("PATCH /api/v1/polls/{poll_id}", s.handleUpdatePoll)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}/update", s.handleGetPollUpdate)
	s.mux.HandleFunc("POST /api/v1/polls/{poll_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /api/v1/polls/{poll_id}/reveals", s.handleRevealVote)
	s.mux.HandleFunc("POST /api/v1/polls/{poll_id}/finalize", s.handleFinalizePoll)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}/tally", s.handleTally)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}/voters/{voter}", s.handleVoteStatus)
	s.mux.HandleFunc("POST /api/v1/commitments", s.handleCommitment)

	s.mux.HandleFunc("GET /api/v1/settings", s.handleSettings)
	s.mux.HandleFunc("PUT /api/v1/settings/authority", s.handleSetAuthority)
	s.mux.HandleFunc("PUT /api/v1/settings/creation-fee", s.handleSetCreationFee)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
