package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"snake-duel/internal/config"
	"snake-duel/internal/game"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine     *game.Engine
	cfg        config.ServerConfig
	router     *chi.Mux
	wsHub      *WebSocketHub
	limiter    *ClientLimiter
	httpServer *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine *game.Engine, cfg config.ServerConfig) *Server {
	guard := NewControlGuard(cfg.ControlToken)
	origins := NewOriginPolicy(cfg.CORSOrigins)
	limiter := NewClientLimiter(LimitsFromConfig(cfg, engine.TickPeriod()))

	s := &Server{
		engine:  engine,
		cfg:     cfg,
		limiter: limiter,
		wsHub: NewWebSocketHub(engine, HubOptions{
			Guard:   guard,
			Limiter: limiter,
			Origins: origins,
		}),
	}

	s.router = NewRouter(RouterConfig{
		Engine:  engine,
		Events:  engine.EventLog(),
		Limiter: limiter,
		Origins: origins,
		Guard:   guard,
	})

	// The hub needs its own instance, so /ws is not part of NewRouter
	s.router.With(limiter.Limit(LaneRead)).Get("/ws", s.wsHub.HandleWebSocket)

	engine.OnGameOver(s.wsHub.BroadcastGameOver)

	return s
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
// It blocks until the server stops; a clean Stop returns nil.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	interval := s.cfg.BroadcastEvery
	if interval <= 0 {
		interval = s.engine.TickPeriod()
	}
	s.wsHub.StartBroadcastLoop(interval)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(engine, config.DefaultServer())
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Limiter returns the per-client limiter shared by HTTP and WebSocket traffic
func (s *Server) Limiter() *ClientLimiter {
	return s.limiter
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop performs graceful shutdown of background workers and the listener.
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
