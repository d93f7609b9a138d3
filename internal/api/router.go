package api

import (
	"net/http"

	"snake-duel/internal/config"
	"snake-duel/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// Start begins a new session, replacing any session in progress
	Start(mode game.Mode) error
	// Stop ends the running session with a score verdict
	Stop()
	// SetIntendedDirection buffers a direction request for the next tick
	SetIntendedDirection(player int, dir game.Direction) error
	// GetSnapshot returns the latest lock-free immutable snapshot
	GetSnapshot() *game.GameSnapshot
	// GameOver returns the last game-over event, if the last session ended
	GameOver() (game.GameOverEvent, bool)
}

// EventSource exposes the recent session events (optional)
type EventSource interface {
	Recent(n int) []game.Event
	Stats() game.EventLogStats
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	limits := api.UnlimitedLimits()
//	router := api.NewRouter(api.RouterConfig{
//	    Engine: mockEngine,
//	    Limits: &limits,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Events is the session event log. If nil, /api/events is not mounted.
	Events EventSource

	// Limiter is an optional shared per-client limiter (the server shares it
	// with the WebSocket hub). If nil, one is built from Limits.
	Limiter *ClientLimiter

	// Limits configures a new limiter when Limiter is nil.
	// If both are nil, the default server budgets apply.
	Limits *Limits

	// Origins decides CORS access. If nil, only loopback origins are allowed.
	Origins *OriginPolicy

	// Guard protects session start/stop. If nil, control is open.
	Guard *ControlGuard

	// CellSize is the pixel size of one cell in /api/board.png (default 24)
	CellSize int

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine   EngineInterface
	events   EventSource
	cellSize int
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters! RealIP must run before the limiter keys on RemoteAddr.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	origins := cfg.Origins
	if origins == nil {
		origins = NewOriginPolicy(nil)
	}
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  origins.AllowOrigin,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", ControlTokenHeader},
		ExposedHeaders:   []string{"Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	limiter := cfg.Limiter
	if limiter == nil {
		limits := LimitsFromConfig(config.DefaultServer(), 0)
		if cfg.Limits != nil {
			limits = *cfg.Limits
		}
		limiter = NewClientLimiter(limits)
	}

	cellSize := cfg.CellSize
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	h := &routerHandlers{
		engine:   cfg.Engine,
		events:   cfg.Events,
		cellSize: cellSize,
	}

	r.Route("/api", func(r chi.Router) {
		// Read side
		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit(LaneRead))
			r.Get("/state", h.handleGetState)
			r.Get("/gameover", h.handleGetGameOver)
			r.Get("/board.png", h.handleBoardPNG)
			if h.events != nil {
				r.Get("/events", h.handleGetEvents)
			}
		})

		// Input, budgeted per tick
		r.With(limiter.Limit(LaneInput)).Post("/input", h.handleInput)

		// Session control: the budget also throttles token guessing
		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit(LaneControl))
			if cfg.Guard != nil {
				r.Use(cfg.Guard.Middleware)
			}
			r.Post("/session/start", h.handleSessionStart)
			r.Post("/session/stop", h.handleSessionStop)
		})
	})

	r.With(limiter.Limit(LaneRead)).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}
