package terminal

import (
	"github.com/gdamore/tcell/v2"

	"snake-duel/internal/game"
)

// Command is what a key press asks the client to do
type Command uint8

const (
	CmdNone Command = iota
	CmdSteer
	CmdStart
	CmdRestart
	CmdMenu
	CmdQuit
)

// Action is a decoded key press
type Action struct {
	Cmd    Command
	Player int
	Dir    game.Direction
	Mode   game.Mode
}

var arrowDirections = map[tcell.Key]game.Direction{
	tcell.KeyUp:    game.DirUp,
	tcell.KeyDown:  game.DirDown,
	tcell.KeyLeft:  game.DirLeft,
	tcell.KeyRight: game.DirRight,
}

var wasdDirections = map[rune]game.Direction{
	'w': game.DirUp,
	's': game.DirDown,
	'a': game.DirLeft,
	'd': game.DirRight,
}

var menuModes = map[rune]game.Mode{
	'1': game.ModeSingle,
	'2': game.ModeLocal,
	'3': game.ModeCPU,
}

// MapKey decodes a key press. Arrows steer player 1; WASD steers player 2
// in local mode only. Menu digits pick a mode.
func MapKey(key tcell.Key, ch rune, mode game.Mode, inMenu bool) Action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Action{Cmd: CmdQuit}
	case tcell.KeyRune:
	default:
		if dir, ok := arrowDirections[key]; ok && !inMenu {
			return Action{Cmd: CmdSteer, Player: 1, Dir: dir}
		}
		return Action{}
	}

	if ch >= 'A' && ch <= 'Z' {
		ch += 'a' - 'A'
	}
	if ch == 'q' {
		return Action{Cmd: CmdQuit}
	}

	if inMenu {
		if m, ok := menuModes[ch]; ok {
			return Action{Cmd: CmdStart, Mode: m}
		}
		return Action{}
	}

	switch ch {
	case 'r':
		return Action{Cmd: CmdRestart}
	case 'm':
		return Action{Cmd: CmdMenu}
	}
	if dir, ok := wasdDirections[ch]; ok && mode == game.ModeLocal {
		return Action{Cmd: CmdSteer, Player: 2, Dir: dir}
	}
	return Action{}
}
