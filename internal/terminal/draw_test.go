package terminal

import (
	"testing"

	"snake-duel/internal/config"
	"snake-duel/internal/game"
)

// TestLayoutMapsVirtualToVisible verifies entities land on visible cells by offset
func TestLayoutMapsVirtualToVisible(t *testing.T) {
	board := game.NewBoard(config.DefaultGame())
	o := board.Offset

	snap := &game.GameSnapshot{
		Board: board,
		Food:  game.Position{Row: o + 2, Col: o + 3},
		BonusFood: game.TransientSnapshot{
			Present: true,
			Pos:     game.Position{Row: o, Col: o},
		},
		Hazard: game.TransientSnapshot{
			Present: true,
			Pos:     game.Position{Row: 0, Col: 0}, // off-screen
		},
		Snakes: []game.SnakeSnapshot{
			{Player: 1, Body: []game.Position{{Row: o + 5, Col: o + 5}, {Row: o + 5, Col: o + 4}}},
			{Player: 2, Body: []game.Position{{Row: o + 9, Col: o + 9}, {Row: o + 9, Col: o + 10}}},
		},
	}

	grid := layout(snap)
	if len(grid) != board.VisibleSize || len(grid[0]) != board.VisibleSize {
		t.Fatalf("Expected %dx%d grid, got %dx%d", board.VisibleSize, board.VisibleSize, len(grid), len(grid[0]))
	}

	tests := []struct {
		row, col int
		want     glyph
	}{
		{2, 3, glyphFood},
		{0, 0, glyphBonus},
		{5, 5, glyphHead1},
		{5, 4, glyphBody1},
		{9, 9, glyphHead2},
		{9, 10, glyphBody2},
		{1, 1, glyphEmpty},
	}
	for _, tt := range tests {
		if got := grid[tt.row][tt.col]; got != tt.want {
			t.Errorf("Cell (%d,%d): expected %d, got %d", tt.row, tt.col, tt.want, got)
		}
	}

	hazards := 0
	for _, row := range grid {
		for _, g := range row {
			if g == glyphHazard {
				hazards++
			}
		}
	}
	if hazards != 0 {
		t.Errorf("Off-screen hazard should not be drawn, found %d", hazards)
	}
}

// TestLayoutSnakeOverFood verifies snakes draw on top of items
func TestLayoutSnakeOverFood(t *testing.T) {
	board := game.NewBoard(config.DefaultGame())
	o := board.Offset
	p := game.Position{Row: o + 1, Col: o + 1}

	snap := &game.GameSnapshot{
		Board:  board,
		Food:   p,
		Snakes: []game.SnakeSnapshot{{Player: 1, Body: []game.Position{p}}},
	}

	if got := layout(snap)[1][1]; got != glyphHead1 {
		t.Errorf("Expected head over food, got %d", got)
	}
}
