// Package server exposes one dashboard container over HTTP and WebSocket.
//
// REST endpoints drive the dashboard (select, adjust, commit, visualize,
// transition, cache clear) and read its state. GET /ws streams layout
// snapshots of the running job graph and accepts drag, zoom and pan events.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/opengamedata/ogdviz/am"
	"github.com/opengamedata/ogdviz/catalog"
	"github.com/opengamedata/ogdviz/dashboard"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/layout"
	"github.com/opengamedata/ogdviz/logger"
)

// Options configures New.
type Options struct {
	Catalog        *catalog.Catalog
	AllowedOrigins []string
	Logger         *zap.SugaredLogger
}

// Server serves one dashboard container to any number of clients. Every
// client sees the same container; state changes are pushed to all of them.
type Server struct {
	dash    *dashboard.Container
	catalog *catalog.Catalog
	logger  *zap.SugaredLogger
	router  chi.Router

	mu      sync.RWMutex
	clients map[*Client]bool
	origins []string

	httpServer    *http.Server
	configWatcher *am.ConfigWatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a server around dash. It does not listen until Start.
func New(dash *dashboard.Container, opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		dash:    dash,
		catalog: opts.Catalog,
		logger:  opts.Logger.Named("server"),
		clients: make(map[*Client]bool),
		origins: append([]string(nil), opts.AllowedOrigins...),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.router = s.routes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) allowedOrigins() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origins
}

func (s *Server) setAllowedOrigins(origins []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origins = append([]string(nil), origins...)
}

// WatchConfig applies layout parameters and allowed origins from every
// reload of w. New parameters take effect at the next visualize.
func (s *Server) WatchConfig(w *am.ConfigWatcher) {
	s.configWatcher = w
	w.OnReload(func(cfg *am.Config) error {
		s.dash.SetLayoutParams(layout.ParamsFrom(cfg.Layout))
		s.setAllowedOrigins(cfg.Server.AllowedOrigins)
		s.logger.Infow("Config reloaded",
			"allowed_origins", len(cfg.Server.AllowedOrigins),
			"charge_strength", cfg.Layout.ChargeStrength)
		return nil
	})
	w.Start()
}

// Start listens on port, or the first free fallback port, and blocks until Stop.
func (s *Server) Start(port int) error {
	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}
	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			logger.FieldPort, actualPort)
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", actualPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", actualPort),
		logger.FieldPort, actualPort)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen")
	}
	return nil
}

// Stop closes every client, stops the HTTP listener and the config watcher.
// The container is left to its owner.
func (s *Server) Stop() error {
	s.logger.Infow("Initiating server shutdown")

	s.mu.Lock()
	clientsToClose := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clientsToClose = append(clientsToClose, c)
		delete(s.clients, c)
	}
	srv := s.httpServer
	s.mu.Unlock()

	for _, c := range clientsToClose {
		c.close()
	}
	s.cancel()

	var shutdownErr error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		shutdownErr = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Goroutine shutdown timed out", "timeout", ShutdownTimeout)
	}

	if s.configWatcher != nil {
		if err := s.configWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop config watcher", logger.FieldError, err)
		}
	}

	s.logger.Infow("Server shutdown complete")
	return errors.Wrap(shutdownErr, "shutdown http server")
}

func (s *Server) register(c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) >= MaxClients {
		s.logger.Warnw("Max clients reached, rejecting connection",
			"client_id", c.id,
			"max_clients", MaxClients)
		return false
	}
	s.clients[c] = true
	s.logger.Infow("Client connected",
		"client_id", c.id,
		"total_clients", len(s.clients))
	return true
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	total := len(s.clients)
	s.mu.Unlock()

	c.close()
	if ok {
		s.logger.Infow("Client disconnected",
			"client_id", c.id,
			"total_clients", total)
	}
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// stateChanged tells every client to resubscribe to the current layout and
// pushes the new status.
func (s *Server) stateChanged() {
	status := Envelope{Type: MsgStatus, Data: s.dash.Status()}

	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.relayoutNow()
		c.queue(status)
	}
}
