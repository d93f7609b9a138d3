package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"snake-duel/internal/audio"
	"snake-duel/internal/config"
	"snake-duel/internal/game"
	"snake-duel/internal/terminal"
)

func main() {
	remoteURL := flag.String("remote", "", "play a server session, e.g. ws://localhost:3000/ws")
	token := flag.String("token", "", "control token for remote start/stop (default $CONTROL_TOKEN)")
	mute := flag.Bool("mute", false, "disable sound cues")
	volume := flag.Float64("volume", 0.6, "sound cue volume 0.0-1.0")
	soundDir := flag.String("sounds", "", "directory with food.wav, bonus.wav, hazard.wav, gameover.wav overrides")
	logPath := flag.String("log", "", "write logs to this file (default: discarded)")
	flag.Parse()

	// The screen owns stdout; logs go to a file or nowhere
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}
	if *token == "" {
		*token = os.Getenv("CONTROL_TOKEN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var backend terminal.Backend
	if *remoteURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		remote, err := terminal.DialRemote(dialCtx, *remoteURL, *token)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect: %v\n", err)
			os.Exit(1)
		}
		defer remote.Close()

		// A dropped connection ends the client
		var cancelRun context.CancelFunc
		ctx, cancelRun = context.WithCancel(ctx)
		defer cancelRun()
		go func() {
			<-remote.Done()
			cancelRun()
		}()
		backend = remote
		log.Printf("🔌 Connected to %s", *remoteURL)
	} else {
		engine := game.NewEngine(game.EngineConfig{Game: config.GameFromEnv()})
		defer engine.Stop()
		backend = engine
	}

	var mixer *audio.Mixer
	if !*mute {
		mixer = audio.NewMixer(*volume)
		if *soundDir != "" {
			for _, c := range []audio.Cue{audio.CueFood, audio.CueBonus, audio.CueHazard, audio.CueGameOver} {
				path := filepath.Join(*soundDir, c.String()+".wav")
				if err := mixer.LoadCue(c, path); err != nil {
					log.Printf("⚠️ Using synthesized %s cue: %v", c, err)
				}
			}
		}
		out, err := audio.NewOutput(mixer)
		if err != nil {
			// Non-fatal, the game runs without sound
			log.Printf("⚠️ Audio disabled: %v", err)
			mixer = nil
		} else {
			defer out.Close()
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "terminal: %v\n", err)
		os.Exit(1)
	}

	app := terminal.NewApp(screen, backend, mixer)
	err = app.Run(ctx)
	screen.Fini()

	if err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "snake-duel: %v\n", err)
	}
}
