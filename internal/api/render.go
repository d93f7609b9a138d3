package api

import (
	"fmt"
	"image/color"
	"io"

	"snake-duel/internal/game"

	"github.com/fogleman/gg"
)

// DefaultCellSize is the pixel size of one visible cell in board images
const DefaultCellSize = 24

// scoreBarHeight is the strip above the board holding the scores
const scoreBarHeight = 28

var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorFood       = color.RGBA{255, 62, 62, 255}
	colorBonus      = color.RGBA{255, 200, 0, 255}
	colorHazard     = color.RGBA{170, 60, 255, 255}
	colorText       = color.RGBA{230, 230, 240, 255}
	colorGold       = color.RGBA{255, 215, 0, 255}
	colorRed        = color.RGBA{255, 80, 80, 255}

	// Head then body per player
	snakeColors = [2][2]color.RGBA{
		{{120, 255, 120, 255}, {40, 180, 70, 255}},
		{{120, 200, 255, 255}, {40, 110, 220, 255}},
	}
)

// RenderBoard draws the visible window of snap as a PNG onto w.
// Only on-screen cells are drawn; transient entities outside the window are invisible.
func RenderBoard(w io.Writer, snap *game.GameSnapshot, cellSize int) error {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	board := snap.Board
	side := board.VisibleSize * cellSize
	dc := gg.NewContext(side, side+scoreBarHeight)

	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, float64(side), float64(side+scoreBarHeight))
	dc.Fill()

	drawScores(dc, snap, side)
	drawGrid(dc, board.VisibleSize, cellSize)

	cell := float64(cellSize)
	center := func(row, col int) (float64, float64) {
		return float64(col)*cell + cell/2, float64(row)*cell + cell/2 + scoreBarHeight
	}

	if row, col, ok := board.ToVisible(snap.Food); ok {
		x, y := center(row, col)
		dc.SetColor(colorFood)
		dc.DrawCircle(x, y, cell*0.35)
		dc.Fill()
	}

	drawTransient(dc, board, snap.BonusFood, colorBonus, cell, center)
	drawTransient(dc, board, snap.Hazard, colorHazard, cell, center)

	for _, s := range snap.Snakes {
		palette := snakeColors[(s.Player-1)%2]
		// Tail first so the head stays on top where segments overlap
		for i := len(s.Body) - 1; i >= 0; i-- {
			row, col, ok := board.ToVisible(s.Body[i])
			if !ok {
				continue
			}
			if i == 0 {
				dc.SetColor(palette[0])
			} else {
				dc.SetColor(palette[1])
			}
			dc.DrawRectangle(float64(col)*cell+1, float64(row)*cell+1+scoreBarHeight, cell-2, cell-2)
			dc.Fill()
		}
	}

	if snap.GameOver != nil {
		dc.SetColor(color.RGBA{0, 0, 0, 160})
		dc.DrawRectangle(0, scoreBarHeight, float64(side), float64(side))
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored("GAME OVER", float64(side)/2, float64(side)/2+scoreBarHeight-10, 0.5, 0.5)
		dc.DrawStringAnchored(snap.GameOver.Headline(), float64(side)/2, float64(side)/2+scoreBarHeight+10, 0.5, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode board png: %w", err)
	}
	return nil
}

func drawGrid(dc *gg.Context, visible, cellSize int) {
	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	side := float64(visible * cellSize)
	for i := 0; i <= visible; i++ {
		p := float64(i * cellSize)
		dc.DrawLine(p, scoreBarHeight, p, side+scoreBarHeight)
		dc.Stroke()
		dc.DrawLine(0, p+scoreBarHeight, side, p+scoreBarHeight)
		dc.Stroke()
	}
}

func drawTransient(dc *gg.Context, board game.Board, t game.TransientSnapshot, c color.Color, cell float64,
	center func(row, col int) (float64, float64)) {
	if !t.Present {
		return
	}
	row, col, ok := board.ToVisible(t.Pos)
	if !ok {
		return
	}
	x, y := center(row, col)
	dc.SetColor(c)
	dc.DrawRegularPolygon(4, x, y, cell*0.45, 0)
	dc.Fill()
}

func drawScores(dc *gg.Context, snap *game.GameSnapshot, side int) {
	gold := [2]bool{}
	red := [2]bool{}
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

	scoreColor := func(i int) color.Color {
		switch {
		case gold[i]:
			return colorGold
		case red[i]:
			return colorRed
		default:
			return colorText
		}
	}

	y := float64(scoreBarHeight) / 2
	dc.SetColor(scoreColor(0))
	dc.DrawStringAnchored(fmt.Sprintf("P1 %d", snap.Scores[0]), 8, y, 0, 0.5)
	if snap.Mode.Multiplayer() {
		label := "P2"
		if snap.Mode == game.ModeCPU {
			label = "CPU"
		}
		dc.SetColor(scoreColor(1))
		dc.DrawStringAnchored(fmt.Sprintf("%s %d", label, snap.Scores[1]), float64(side)-8, y, 1, 0.5)
	}
}
