package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"snake-duel/internal/api"
	"snake-duel/internal/config"
	"snake-duel/internal/game"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🐍 ================================")
	log.Println("🐍  SNAKE DUEL - GO ENGINE")
	log.Println("🐍 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	gameCfg := appConfig.Game
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: %dx%d visible, %dx%d virtual, %v ticks",
		gameCfg.VisibleSize, gameCfg.VisibleSize, gameCfg.VirtualSize, gameCfg.VirtualSize, gameCfg.TickPeriod)

	engine := game.NewEngine(game.EngineConfig{
		Game:     gameCfg,
		Observer: api.EngineMetrics{},
	})

	// Start event log
	if appConfig.EventLog.Enabled {
		if err := engine.StartEventLog(appConfig.EventLog.Path); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", appConfig.EventLog.Path)
		}
	}

	// Start debug server
	if appConfig.Debug.Enabled {
		if err := api.StartDebugServer(api.ObservabilityFromConfig(appConfig.Debug)); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	if serverCfg.ControlToken == "" {
		log.Println("⚠️ Session control is OPEN (set CONTROL_TOKEN to protect start/stop)")
	} else {
		log.Println("🔐 Session control requires CONTROL_TOKEN")
	}

	server := api.NewServer(engine, serverCfg)

	// Optional session on boot, e.g. AUTOSTART_MODE=cpu
	if m := os.Getenv("AUTOSTART_MODE"); m != "" {
		mode, err := game.ParseMode(m)
		if err != nil {
			log.Printf("⚠️ Ignoring AUTOSTART_MODE: %v", err)
		} else if err := engine.Start(mode); err != nil {
			log.Printf("⚠️ Autostart failed: %v", err)
		}
	}

	addr := ":" + strconv.Itoa(serverCfg.Port)
	go func() {
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🖼️ Board view: http://localhost%s/api/board.png", addr)
		log.Printf("🔌 WebSocket: ws://localhost%s/ws", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	engine.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}
