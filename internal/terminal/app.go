// Package terminal is a tcell front-end: it reads keys into direction requests and
// draws snapshots of a local engine or a remote server session.
package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"snake-duel/internal/audio"
	"snake-duel/internal/game"
)

// DefaultFrameInterval is the redraw cadence, faster than the tick so input feels immediate
const DefaultFrameInterval = 33 * time.Millisecond

// App is the terminal client loop
type App struct {
	screen  tcell.Screen
	backend Backend
	mixer   *audio.Mixer // nil runs silent

	frame  time.Duration
	inMenu bool
	mode   game.Mode
	status string
	prev   *game.GameSnapshot
}

// NewApp creates a client showing the menu. mixer may be nil.
func NewApp(screen tcell.Screen, backend Backend, mixer *audio.Mixer) *App {
	return &App{
		screen:  screen,
		backend: backend,
		mixer:   mixer,
		frame:   DefaultFrameInterval,
		inMenu:  true,
	}
}

// Run processes input and redraws until quit or ctx ends
func (a *App) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(a.frame)
	defer ticker.Stop()

	a.render()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if a.handleEvent(ev) {
				return nil
			}
			a.render()
		case <-ticker.C:
			a.render()
		}
	}
}

// handleEvent returns true when the client should exit
func (a *App) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return false
}

func (a *App) handleKey(key tcell.Key, ch rune) bool {
	act := MapKey(key, ch, a.currentMode(), a.inMenu)

	switch act.Cmd {
	case CmdQuit:
		a.backend.Stop()
		return true
	case CmdStart:
		a.start(act.Mode)
	case CmdRestart:
		a.start(a.currentMode())
	case CmdMenu:
		a.backend.Stop()
		a.inMenu = true
		a.status = ""
	case CmdSteer:
		// Not running after a game over; the request has nothing to steer
		a.backend.SetIntendedDirection(act.Player, act.Dir)
	}
	return false
}

// currentMode prefers the session's own mode so a remote session started elsewhere maps keys correctly
func (a *App) currentMode() game.Mode {
	if snap := a.backend.GetSnapshot(); snap != nil && snap.Board.VisibleSize > 0 {
		return snap.Mode
	}
	return a.mode
}

func (a *App) start(mode game.Mode) {
	if err := a.backend.Start(mode); err != nil {
		a.status = err.Error()
		return
	}
	a.mode = mode
	a.inMenu = false
	a.status = ""
	a.prev = nil
}

func (a *App) render() {
	if a.inMenu {
		DrawMenu(a.screen, a.status)
		a.screen.Show()
		return
	}

	snap := a.backend.GetSnapshot().Clone()
	if a.mixer != nil {
		for _, c := range audio.DetectCues(a.prev, snap) {
			a.mixer.Queue(c)
		}
	}
	a.prev = snap

	Draw(a.screen, snap)
	a.screen.Show()
}
