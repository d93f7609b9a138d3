// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all simulation and server settings.
//
// IMPORTANT: Game rules are fixed constants and are NOT tunable through the
// environment. The tick period (TICK_MS, for testing) and the outer surfaces
// (server, event log, debug server) read overrides.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// GAME RULES
// =============================================================================

// SpawnWindow is a half-open range [Min, Max) of ticks a spawn countdown is drawn from.
type SpawnWindow struct {
	Min int
	Max int
}

// Span returns the number of distinct values in the window.
func (w SpawnWindow) Span() int {
	return w.Max - w.Min
}

// GameConfig holds the fixed rules of the simulation.
type GameConfig struct {
	VirtualSize int // Side of the virtual grid transient entities travel through
	VisibleSize int // Side of the visible window snakes live in

	TickPeriod time.Duration

	InitialSnakeLength int
	MinSnakeLength     int

	FoodPoints      int
	BonusFoodPoints int
	BonusGrowth     int // Extra segments on top of the implicit food growth

	BonusMoveFrequency  int // Bonus food advances once every N ticks
	HazardMoveFrequency int // Hazard advances once every N ticks

	BonusInitialSpawn  SpawnWindow
	BonusRespawn       SpawnWindow
	HazardInitialSpawn SpawnWindow
	HazardRespawn      SpawnWindow

	AIDecisionQuality float64 // Probability the CPU plays its scored move
	AIHazardRadius    int     // Manhattan distance under which the hazard is avoided
}

// Offset returns the margin between the virtual and visible grids on every side.
func (g GameConfig) Offset() int {
	return (g.VirtualSize - g.VisibleSize) / 2
}

// DefaultGame returns the game rules.
func DefaultGame() GameConfig {
	return GameConfig{
		VirtualSize:         30,
		VisibleSize:         20,
		TickPeriod:          150 * time.Millisecond,
		InitialSnakeLength:  3,
		MinSnakeLength:      3,
		FoodPoints:          1,
		BonusFoodPoints:     5,
		BonusGrowth:         2,
		BonusMoveFrequency:  6, // ~900ms at 150ms ticks
		HazardMoveFrequency: 5, // ~750ms at 150ms ticks
		BonusInitialSpawn:   SpawnWindow{Min: 10, Max: 30},
		BonusRespawn:        SpawnWindow{Min: 20, Max: 60},
		HazardInitialSpawn:  SpawnWindow{Min: 20, Max: 50},
		HazardRespawn:       SpawnWindow{Min: 40, Max: 80},
		AIDecisionQuality:   0.999,
		AIHazardRadius:      3,
	}
}

// GameFromEnv returns the game rules with the tick period override applied.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if ms := getEnvInt("TICK_MS", 0); ms > 0 {
		cfg.TickPeriod = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
//
// Each client gets three budgets: reads (state, board, events, /ws upgrades),
// direction input (scaled to the tick period) and session control.
type ServerConfig struct {
	Port           int
	CORSOrigins    []string // Browser origins allowed besides loopback
	RequestsPerSec float64  // Read budget
	Burst          int
	InputPerTick   int // Direction requests a client may send per tick
	ControlPerMin  int // Session start/stop requests per minute
	ControlBurst   int
	BroadcastEvery time.Duration // WebSocket snapshot push interval
	ControlToken   string        // When set, session start/stop require it
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		RequestsPerSec: 20,
		Burst:          40,
		InputPerTick:   2,
		ControlPerMin:  30,
		ControlBurst:   3,
		BroadcastEvery: 150 * time.Millisecond,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerSec = rps
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	if n := getEnvInt("INPUT_PER_TICK", 0); n > 0 {
		cfg.InputPerTick = n
	}
	if n := getEnvInt("CONTROL_RATE_PER_MIN", 0); n > 0 {
		cfg.ControlPerMin = n
	}
	if ms := getEnvInt("BROADCAST_MS", 0); ms > 0 {
		cfg.BroadcastEvery = time.Duration(ms) * time.Millisecond
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	cfg.ControlToken = os.Getenv("CONTROL_TOKEN")

	return cfg
}

// =============================================================================
// EVENT LOG & OBSERVABILITY
// =============================================================================

// EventLogConfig controls the JSONL event log.
type EventLogConfig struct {
	Path    string // Empty disables file output
	Enabled bool
}

// EventLogFromEnv returns event log configuration with environment variable overrides.
func EventLogFromEnv() EventLogConfig {
	cfg := EventLogConfig{Path: "events.jsonl", Enabled: true}

	if p := os.Getenv("EVENT_LOG_PATH"); p != "" {
		cfg.Path = p
	}
	if os.Getenv("EVENT_LOG_ENABLED") == "false" {
		cfg.Enabled = false
	}

	return cfg
}

// DebugConfig controls the localhost pprof/metrics server.
type DebugConfig struct {
	Enabled       bool
	ListenAddr    string
	AllowExternal bool   // Permit a non-loopback ListenAddr
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DebugFromEnv returns debug server configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DebugConfig{Enabled: true, ListenAddr: "127.0.0.1:6060"}

	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.AllowExternal = os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true"
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game     GameConfig
	Server   ServerConfig
	EventLog EventLogConfig
	Debug    DebugConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:     GameFromEnv(),
		Server:   ServerFromEnv(),
		EventLog: EventLogFromEnv(),
		Debug:    DebugFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
