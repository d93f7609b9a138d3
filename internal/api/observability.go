package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"snake-duel/internal/config"
	"snake-duel/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (player label is "1" or "2" only)
var (
	// Game engine metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snake_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	playerScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "snake_player_score",
		Help: "Current score per player slot",
	}, []string{"player"})

	gamesOver = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_games_over_total",
		Help: "Finished sessions by mode and verdict",
	}, []string{"mode", "winner", "cause"})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snake_board_render_duration_seconds",
		Help:    "Time spent rendering the board PNG",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	// Event log metrics
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_events",
		Help: "Total events stored by the event log",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "origin", "unauthorized", "ws_total_limit", "ws_ip_limit"

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_rate_limited_total",
		Help: "Requests and WebSocket commands over a client budget",
	}, []string{"lane"}) // Bounded: "read", "input", "control"

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// EngineMetrics records engine measurements into Prometheus.
// It satisfies game.TickObserver.
type EngineMetrics struct{}

// RecordTick records tick timing
func (EngineMetrics) RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// RecordScores updates the per-player score gauges
func (EngineMetrics) RecordScores(scores [2]int) {
	playerScore.WithLabelValues("1").Set(float64(scores[0]))
	playerScore.WithLabelValues("2").Set(float64(scores[1]))
}

// RecordGameOver counts a finished session
func (EngineMetrics) RecordGameOver(ev game.GameOverEvent) {
	gamesOver.WithLabelValues(ev.Mode.String(), ev.Winner.String(), ev.Cause.String()).Inc()
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be "127.0.0.1:6060" in production
	AllowExternal bool
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// ObservabilityFromConfig maps the app debug settings onto the debug server
func ObservabilityFromConfig(cfg config.DebugConfig) ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:       cfg.Enabled,
		ListenAddr:    cfg.ListenAddr,
		AllowExternal: cfg.AllowExternal,
		BasicAuthUser: cfg.BasicAuthUser,
		BasicAuthPass: cfg.BasicAuthPass,
	}
}

// StartDebugServer starts the internal observability server
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	// SECURITY: Validate address is localhost
	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if !cfg.AllowExternal {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	var handler http.Handler = debugMux()
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, handler)
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func debugMux() *http.ServeMux {
	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordRender records board render timing
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// UpdateEventLogStats mirrors the event log counters into gauges
func UpdateEventLogStats(stats game.EventLogStats) {
	eventLogTotal.Set(float64(stats.Total))
	eventLogDropped.Set(float64(stats.Dropped))
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRateLimited counts a request rejected by a lane budget
func RecordRateLimited(lane Lane) {
	rateLimited.WithLabelValues(lane.String()).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
