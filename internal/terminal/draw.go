package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"snake-duel/internal/game"
)

// Each board cell is two terminal columns wide so the grid looks square
const cellWidth = 2

// Rows above the board: score line and top border
const boardTop = 2

type glyph uint8

const (
	glyphEmpty glyph = iota
	glyphFood
	glyphBonus
	glyphHazard
	glyphHead1
	glyphBody1
	glyphHead2
	glyphBody2
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleGold    = tcell.StyleDefault.Foreground(tcell.ColorGold).Bold(true)
	styleRed     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
)

var glyphCells = map[glyph]struct {
	runes [cellWidth]rune
	style tcell.Style
}{
	glyphEmpty:  {[cellWidth]rune{' ', ' '}, styleDefault},
	glyphFood:   {[cellWidth]rune{'●', ' '}, tcell.StyleDefault.Foreground(tcell.ColorRed)},
	glyphBonus:  {[cellWidth]rune{'★', ' '}, tcell.StyleDefault.Foreground(tcell.ColorGold)},
	glyphHazard: {[cellWidth]rune{'✖', ' '}, tcell.StyleDefault.Foreground(tcell.ColorPurple)},
	glyphHead1:  {[cellWidth]rune{'█', '█'}, tcell.StyleDefault.Foreground(tcell.ColorLime)},
	glyphBody1:  {[cellWidth]rune{'█', '█'}, tcell.StyleDefault.Foreground(tcell.ColorGreen)},
	glyphHead2:  {[cellWidth]rune{'█', '█'}, tcell.StyleDefault.Foreground(tcell.ColorAqua)},
	glyphBody2:  {[cellWidth]rune{'█', '█'}, tcell.StyleDefault.Foreground(tcell.ColorBlue)},
}

// layout maps the snapshot onto the visible window, row-major.
// Later layers win: food, bonus food, hazard, then snakes tail first.
func layout(snap *game.GameSnapshot) [][]glyph {
	board := snap.Board
	grid := make([][]glyph, board.VisibleSize)
	for r := range grid {
		grid[r] = make([]glyph, board.VisibleSize)
	}

	put := func(p game.Position, g glyph) {
		if row, col, ok := board.ToVisible(p); ok {
			grid[row][col] = g
		}
	}

	put(snap.Food, glyphFood)
	if snap.BonusFood.Present {
		put(snap.BonusFood.Pos, glyphBonus)
	}
	if snap.Hazard.Present {
		put(snap.Hazard.Pos, glyphHazard)
	}

	for _, s := range snap.Snakes {
		head, body := glyphHead1, glyphBody1
		if s.Player == 2 {
			head, body = glyphHead2, glyphBody2
		}
		for i := len(s.Body) - 1; i >= 0; i-- {
			if i == 0 {
				put(s.Body[i], head)
			} else {
				put(s.Body[i], body)
			}
		}
	}
	return grid
}

// Draw paints a session snapshot
func Draw(s tcell.Screen, snap *game.GameSnapshot) {
	s.Clear()

	side := snap.Board.VisibleSize
	width := side*cellWidth + 2

	drawScores(s, snap, width)
	drawBorder(s, 0, boardTop-1, width, side+2)

	grid := layout(snap)
	for r, row := range grid {
		for c, g := range row {
			cell := glyphCells[g]
			x := 1 + c*cellWidth
			for i, ch := range cell.runes {
				s.SetContent(x+i, boardTop+r, ch, nil, cell.style)
			}
		}
	}

	footer := "arrows: P1"
	if snap.Mode == game.ModeLocal {
		footer += "  WASD: P2"
	}
	footer += "  r: restart  m: menu  q: quit"
	drawText(s, 0, boardTop+side+1, footer, styleDim)

	if snap.GameOver != nil {
		mid := boardTop + side/2
		drawCentered(s, width/2, mid-1, " GAME OVER ", styleRed)
		drawCentered(s, width/2, mid, " "+snap.GameOver.Headline()+" ", styleTitle)
		drawCentered(s, width/2, mid+1, " r: play again  m: menu ", styleDefault)
	}
}

func drawScores(s tcell.Screen, snap *game.GameSnapshot, width int) {
	var gold, red [2]bool
	for _, h := range snap.Highlights {
		if h.Player < 1 || h.Player > 2 {
			continue
		}
		if h.Gold {
			gold[h.Player-1] = true
		} else {
			red[h.Player-1] = true
		}
	}
	style := func(i int) tcell.Style {
		switch {
		case gold[i]:
			return styleGold
		case red[i]:
			return styleRed
		default:
			return styleDefault
		}
	}

	drawText(s, 0, 0, fmt.Sprintf("P1 %d", snap.Scores[0]), style(0))
	if snap.Mode.Multiplayer() {
		label := "P2"
		if snap.Mode == game.ModeCPU {
			label = "CPU"
		}
		text := fmt.Sprintf("%s %d", label, snap.Scores[1])
		drawText(s, width-len(text), 0, text, style(1))
	}
}

// DrawMenu paints the mode selector
func DrawMenu(s tcell.Screen, status string) {
	s.Clear()
	lines := []struct {
		text  string
		style tcell.Style
	}{
		{"S N A K E   D U E L", styleTitle},
		{"", styleDefault},
		{"1  Single player", styleDefault},
		{"2  Two players (arrows + WASD)", styleDefault},
		{"3  Versus CPU", styleDefault},
		{"", styleDefault},
		{"q  Quit", styleDim},
	}

	w, h := s.Size()
	top := h/2 - len(lines)/2
	for i, l := range lines {
		drawCentered(s, w/2, top+i, l.text, l.style)
	}
	if status != "" {
		drawCentered(s, w/2, top+len(lines)+1, status, styleRed)
	}
}

func drawBorder(s tcell.Screen, x, y, w, h int) {
	for i := x + 1; i < x+w-1; i++ {
		s.SetContent(i, y, '─', nil, styleBorder)
		s.SetContent(i, y+h-1, '─', nil, styleBorder)
	}
	for j := y + 1; j < y+h-1; j++ {
		s.SetContent(x, j, '│', nil, styleBorder)
		s.SetContent(x+w-1, j, '│', nil, styleBorder)
	}
	s.SetContent(x, y, '┌', nil, styleBorder)
	s.SetContent(x+w-1, y, '┐', nil, styleBorder)
	s.SetContent(x, y+h-1, '└', nil, styleBorder)
	s.SetContent(x+w-1, y+h-1, '┘', nil, styleBorder)
}

func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for i, ch := range []rune(text) {
		s.SetContent(x+i, y, ch, nil, st)
	}
}

func drawCentered(s tcell.Screen, cx, cy int, text string, st tcell.Style) {
	x := cx - len([]rune(text))/2
	drawText(s, x, cy, text, st)
}
