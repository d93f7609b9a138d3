package game

import (
	"math"

	"snake-duel/internal/config"
)

// Heuristic weights for the CPU opponent
const (
	aiFoodWeight      = 2.0
	aiBonusWeight     = 3.0
	aiHazardPenalty   = 65.0
	aiCenterWeight    = 0.02
	aiTrapPenalty     = 40.0
	aiCoilWeight      = 1.0
	aiCoilRadius      = 2 // 5x5 neighbourhood
	aiTrapMinimumExit = 1
)

// AIController picks the next heading for a computer-controlled snake
type AIController struct {
	cfg   config.GameConfig
	board Board
	rng   Random
}

// NewAIController creates a controller drawing its rare random moves from rng
func NewAIController(cfg config.GameConfig, board Board, rng Random) *AIController {
	return &AIController{cfg: cfg, board: board, rng: rng}
}

type aiCandidate struct {
	dir   Direction
	head  Position
	score float64
}

// NextDirection returns the heading for player's snake on this tick
func (a *AIController) NextDirection(st *SessionState, player int) Direction {
	self := st.Snake(player)
	current := self.Direction

	if a.rng.Float64() > a.cfg.AIDecisionQuality {
		return a.randomTurn(current)
	}

	opponent := st.Opponent(player)
	candidates := make([]aiCandidate, 0, 3)
	for _, dir := range Directions {
		if dir == current.Opposite() {
			continue
		}
		head := Step(self.Head(), dir)
		if a.blocked(head, self, opponent) {
			continue
		}
		candidates = append(candidates, aiCandidate{dir: dir, head: head})
	}

	if len(candidates) == 0 {
		return current
	}

	best := 0
	for i := range candidates {
		candidates[i].score = a.score(st, candidates[i], self, opponent)
		if candidates[i].score > candidates[best].score {
			best = i
		}
	}
	return candidates[best].dir
}

// randomTurn picks uniformly among the three non-reversing directions
func (a *AIController) randomTurn(current Direction) Direction {
	options := make([]Direction, 0, 3)
	for _, dir := range Directions {
		if dir != current.Opposite() {
			options = append(options, dir)
		}
	}
	return options[a.rng.Intn(len(options))]
}

// blocked reports a wall, own body (head excluded) or any opponent segment at p
func (a *AIController) blocked(p Position, self, opponent *Snake) bool {
	return a.board.IsOffVisibleBounds(p) || self.ContainsFrom(p, 1) || opponent.Contains(p)
}

func (a *AIController) score(st *SessionState, c aiCandidate, self, opponent *Snake) float64 {
	score := -aiFoodWeight * float64(Manhattan(c.head, st.Food))

	if st.BonusFood != nil && a.board.IsOnScreen(st.BonusFood.Pos) {
		score -= aiBonusWeight * float64(Manhattan(c.head, st.BonusFood.Pos))
	}

	if st.Hazard != nil && a.board.IsOnScreen(st.Hazard.Pos) &&
		Manhattan(c.head, st.Hazard.Pos) < a.cfg.AIHazardRadius {
		score -= aiHazardPenalty
	}

	center := a.board.Center()
	toCenter := math.Abs(float64(c.head.Row)-center) + math.Abs(float64(c.head.Col)-center)
	score -= aiCenterWeight * toCenter

	if a.exits(c, self, opponent) < aiTrapMinimumExit {
		score -= aiTrapPenalty
	}

	score -= aiCoilWeight * float64(a.nearbySegments(c.head, self))
	return score
}

// exits counts free neighbours of the candidate head, not looking back the way it came
func (a *AIController) exits(c aiCandidate, self, opponent *Snake) int {
	n := 0
	for _, dir := range Directions {
		if dir == c.dir.Opposite() {
			continue
		}
		if !a.blocked(Step(c.head, dir), self, opponent) {
			n++
		}
	}
	return n
}

// nearbySegments counts own segments (head excluded) in the 5x5 box around p, centre excluded
func (a *AIController) nearbySegments(p Position, self *Snake) int {
	n := 0
	for i := 1; i < len(self.Body); i++ {
		dr := self.Body[i].Row - p.Row
		dc := self.Body[i].Col - p.Col
		if dr == 0 && dc == 0 {
			continue
		}
		if abs(dr) <= aiCoilRadius && abs(dc) <= aiCoilRadius {
			n++
		}
	}
	return n
}
