// Package server exposes baccarat table sessions over WebSocket. Each
// connection owns exactly one session.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lox/baccarat/internal/session"
)

// Options configures a Server
type Options struct {
	Session  session.Config
	Recorder session.Recorder
	Clock    quartz.Clock
	Logger   *log.Logger

	// Seed makes every session's shoe reproducible; 0 shuffles randomly
	Seed int64
}

// Server represents the WebSocket server
type Server struct {
	opts        Options
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
	router      chi.Router
}

// NewServer creates a new WebSocket server
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}

	s := &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      opts.Logger.WithPrefix("server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", s.handleHealth)
	s.router = r
	return s
}

// Handler returns the HTTP handler serving /ws and /healthz
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes every open connection
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// handleWebSocket upgrades the request and starts a fresh session for it
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	opts := []session.Option{
		session.WithLogger(s.opts.Logger),
		session.WithClock(s.opts.Clock),
	}
	if s.opts.Recorder != nil {
		opts = append(opts, session.WithRecorder(s.opts.Recorder))
	}
	if s.opts.Seed != 0 {
		opts = append(opts, session.WithSeed(s.opts.Seed))
	}

	sess, err := session.New(s.opts.Session, opts...)
	if err != nil {
		s.logger.Error("Failed to create session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, sess, s.opts.Clock, s.logger)
	s.register(client)
	client.Start()
	client.sendState()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "session", c.session.ID(), "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "session", c.session.ID(), "total", total)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
