package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         3001,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No write timeout for SSE
	}
}

// Server is the HTTP server.
type Server struct {
	config     *Config
	router     *chi.Mux
	httpSrv    *http.Server
	store      *session.Store
	supervisor *router.Router
	registry   *agent.Registry
	bus        *event.Bus
	hub        *Hub
}

// New creates a new Server. The bus may be nil, in which case SSE streams
// carry only heartbeats.
func New(cfg *Config, store *session.Store, supervisor *router.Router, bus *event.Bus) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		config:     cfg,
		router:     chi.NewRouter(),
		store:      store,
		supervisor: supervisor,
		registry:   supervisor.Registry(),
		bus:        bus,
		hub:        NewHub(store),
	}
	if bus != nil {
		s.hub.Follow(bus)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = s.newHTTPServer(fmt.Sprintf(":%d", s.config.Port))
	return s.httpSrv.ListenAndServe()
}

// Serve serves on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	s.httpSrv = s.newHTTPServer(l.Addr().String())
	return s.httpSrv.Serve(l)
}

func (s *Server) newHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
}

// Shutdown gracefully shuts down the server and closes websocket rooms.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Hub returns the websocket room hub.
func (s *Server) Hub() *Hub {
	return s.hub
}
