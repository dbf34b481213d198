package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sirenlab/calltriage/internal/assess"
	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/publish"
	"github.com/sirenlab/calltriage/internal/session"
	"github.com/sirenlab/calltriage/internal/transcriber"
	"github.com/sirenlab/calltriage/internal/transport"
)

type Server struct {
	router    *chi.Mux
	manager   *config.Manager
	publisher publish.Publisher
	upgrader  websocket.Upgrader

	baseCtx  context.Context
	sessions sync.WaitGroup
	active   atomic.Int64
}

func NewServer(manager *config.Manager, publisher publish.Publisher) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		manager:   manager,
		publisher: publisher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router.Get("/healthz", s.health)
	router.Post("/v1/assess", s.assess)
	router.Get("/v1/session", s.session)

	return s
}

// Router exposes the handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ActiveSessions reports how many live call sessions are running right now.
func (s *Server) ActiveSessions() int64 {
	return s.active.Load()
}

// Run serves until ctx is cancelled, then shuts down gracefully. Live call
// sessions are hijacked websocket connections that http.Server.Shutdown does
// not track, so they are cancelled through ctx and waited on separately.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	cfg := s.manager.GetConfig()
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	log.Printf("API: listening on %s", cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("API: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Printf("API: timed out waiting for sessions to finish")
	}

	return err
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type assessRequest struct {
	Transcript string `json:"transcript"`
}

// assess is the synchronous, one-shot scoring endpoint: transcript in,
// recommendation out, no session state involved.
func (s *Server) assess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report := assess.Assess(req.Transcript, s.manager.GetRuleSet())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}

// session upgrades the connection and runs one live call session on the
// handler goroutine until the caller hangs up or the daemon stops.
func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	cfg := s.manager.GetConfig()

	adapter, err := transcriber.New(cfg.ToTranscriberConfig())
	if err != nil {
		log.Printf("API: failed to create transcriber: %v", err)
		http.Error(w, "failed to initialize transcription", http.StatusInternalServerError)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("API: websocket upgrade failed: %v", err)
		return
	}

	id := "call_" + uuid.New().String()[:8]
	sess := session.New(id, transport.NewConn(ws), adapter, session.Options{
		Rules:             s.manager.GetRuleSet(),
		Debounce:          cfg.Session.Debounce,
		InboundBufferSize: cfg.Session.InboundBufferSize,
		Publisher:         s.publisher,
	})

	s.sessions.Add(1)
	s.active.Add(1)
	defer func() {
		s.active.Add(-1)
		s.sessions.Done()
	}()

	ctx := s.baseCtx
	if ctx == nil {
		ctx = r.Context()
	}
	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("API: session %s ended with error: %v", id, err)
	}
}
