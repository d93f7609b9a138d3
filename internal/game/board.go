package game

import (
	"fmt"
	"strings"

	"snake-duel/internal/config"
)

// Position is a cell in virtual-grid coordinates
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Direction is one of the four unit steps on the grid
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Directions is the fixed enumeration order used for candidate moves and tie-breaks
var Directions = [4]Direction{DirUp, DirDown, DirLeft, DirRight}

// Opposite returns the reversal of d
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

// Delta returns the row/col step for d
func (d Direction) Delta() (int, int) {
	switch d {
	case DirUp:
		return -1, 0
	case DirDown:
		return 1, 0
	case DirLeft:
		return 0, -1
	default:
		return 0, 1
	}
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// MarshalText encodes the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses "up", "down", "left" or "right"
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	case "left":
		return DirLeft, nil
	case "right":
		return DirRight, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Step returns p moved one cell in direction d
func Step(p Position, d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// Manhattan returns the taxicab distance between two cells
func Manhattan(a, b Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Board is the stateless geometry of the virtual grid and its visible window.
// Transient entities travel the whole virtual grid; snakes, walls and food
// live inside the visible window only.
type Board struct {
	VirtualSize int `json:"virtualSize"`
	VisibleSize int `json:"visibleSize"`
	Offset      int `json:"offset"`
}

// NewBoard derives the geometry from the game rules
func NewBoard(cfg config.GameConfig) Board {
	return Board{
		VirtualSize: cfg.VirtualSize,
		VisibleSize: cfg.VisibleSize,
		Offset:      cfg.Offset(),
	}
}

// IsOnScreen reports whether p lies inside the visible window
func (b Board) IsOnScreen(p Position) bool {
	hi := b.VirtualSize - b.Offset
	return p.Row >= b.Offset && p.Row < hi && p.Col >= b.Offset && p.Col < hi
}

// IsOffVisibleBounds is the wall check for snake heads
func (b Board) IsOffVisibleBounds(p Position) bool {
	return !b.IsOnScreen(p)
}

// InVirtualGrid reports whether p lies anywhere on the virtual grid
func (b Board) InVirtualGrid(p Position) bool {
	return p.Row >= 0 && p.Row < b.VirtualSize && p.Col >= 0 && p.Col < b.VirtualSize
}

// HasFullyCrossed reports whether an entity that entered the screen has moved
// past the opposite virtual edge in its travel direction
func (b Board) HasFullyCrossed(e *TransientEntity) bool {
	if e == nil || !e.HasEnteredScreen {
		return false
	}
	switch e.Direction {
	case DirUp:
		return e.Pos.Row < 0
	case DirDown:
		return e.Pos.Row >= b.VirtualSize
	case DirLeft:
		return e.Pos.Col < 0
	default:
		return e.Pos.Col >= b.VirtualSize
	}
}

// Center returns the virtual-grid midpoint used by the centering bias
func (b Board) Center() float64 {
	return float64(b.VirtualSize) / 2
}

// ToVisible maps a virtual cell to visible-window coordinates.
// ok is false for cells outside the window.
func (b Board) ToVisible(p Position) (row, col int, ok bool) {
	if !b.IsOnScreen(p) {
		return 0, 0, false
	}
	return p.Row - b.Offset, p.Col - b.Offset, true
}
