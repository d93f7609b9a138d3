package game

import "snake-duel/internal/config"

// DeathCause explains why a snake was eliminated
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseWall
	CauseSelf
	CauseOpponent
	CauseHazard
)

func (c DeathCause) String() string {
	switch c {
	case CauseWall:
		return "wall"
	case CauseSelf:
		return "self"
	case CauseOpponent:
		return "opponent"
	case CauseHazard:
		return "hazard"
	default:
		return "none"
	}
}

// MarshalText encodes the cause by name
func (c DeathCause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a cause name; unrecognized names decode as none
func (c *DeathCause) UnmarshalText(b []byte) error {
	for v := CauseWall; v <= CauseHazard; v++ {
		if v.String() == string(b) {
			*c = v
			return nil
		}
	}
	*c = CauseNone
	return nil
}

// HazardHit describes one hazard resolution
type HazardHit struct {
	Player     int  `json:"player"`
	Penalty    int  `json:"penalty"`
	OldLength  int  `json:"oldLength"`
	NewLength  int  `json:"newLength"`
	Eliminated bool `json:"eliminated"`
}

// CollisionEngine resolves every collision category and applies its effects
type CollisionEngine struct {
	cfg     config.GameConfig
	board   Board
	rng     Random
	spawner *SpawnScheduler
}

// NewCollisionEngine creates a collision engine; despawns are rescheduled through spawner
func NewCollisionEngine(cfg config.GameConfig, board Board, rng Random, spawner *SpawnScheduler) *CollisionEngine {
	return &CollisionEngine{cfg: cfg, board: board, rng: rng, spawner: spawner}
}

// CheckMove tests a prospective head for wall, self and opponent collisions
// before it is committed
func (c *CollisionEngine) CheckMove(st *SessionState, player int, head Position) DeathCause {
	if c.board.IsOffVisibleBounds(head) {
		return CauseWall
	}
	if st.Snake(player).containsExceptTail(head) {
		return CauseSelf
	}
	if st.Mode.Multiplayer() && st.Opponent(player).Contains(head) {
		return CauseOpponent
	}
	return CauseNone
}

// ResolveFood handles ordinary food after the head was committed.
// It returns true when food was eaten; otherwise the tail is dropped.
func (c *CollisionEngine) ResolveFood(st *SessionState, player int) bool {
	s := st.Snake(player)
	if s.Head() != st.Food {
		DropTail(s)
		return false
	}
	st.Scores[player-1] += c.cfg.FoodPoints
	c.PlaceFood(st)
	return true
}

// PlaceFood relocates food to a uniformly random free visible cell.
// Food stays put when no free cell exists.
func (c *CollisionEngine) PlaceFood(st *SessionState) {
	free := c.freeCells(st)
	if len(free) == 0 {
		return
	}
	st.Food = free[c.rng.Intn(len(free))]
}

func (c *CollisionEngine) freeCells(st *SessionState) []Position {
	lo, hi := c.board.Offset, c.board.VirtualSize-c.board.Offset
	free := make([]Position, 0, c.board.VisibleSize*c.board.VisibleSize)

	for row := lo; row < hi; row++ {
		for col := lo; col < hi; col++ {
			p := Position{Row: row, Col: col}
			if st.Snakes[0].Contains(p) || st.Snakes[1].Contains(p) {
				continue
			}
			if c.visibleAt(st.BonusFood, p) || c.visibleAt(st.Hazard, p) {
				continue
			}
			free = append(free, p)
		}
	}
	return free
}

func (c *CollisionEngine) visibleAt(e *TransientEntity, p Position) bool {
	return e != nil && c.board.IsOnScreen(e.Pos) && e.Pos == p
}

// ResolveBonusFood awards the on-screen bonus food to the first snake whose
// head or neck is on it. Returns the collecting player or 0.
func (c *CollisionEngine) ResolveBonusFood(st *SessionState) int {
	bonus := st.BonusFood
	if bonus == nil || !c.board.IsOnScreen(bonus.Pos) {
		return 0
	}

	for i, s := range st.Snakes {
		if s == nil {
			continue
		}
		// Head and neck: the entity may step between them within one tick
		for k := 0; k < 2 && k < len(s.Body); k++ {
			if s.Body[k] != bonus.Pos {
				continue
			}
			player := i + 1
			st.Scores[i] += c.cfg.BonusFoodPoints
			tail := s.Tail()
			for g := 0; g < c.cfg.BonusGrowth; g++ {
				s.Body = append(s.Body, tail)
			}
			st.highlight(player, true)
			st.BonusFood = nil
			c.spawner.RedrawBonus(&st.Timers)
			return player
		}
	}
	return 0
}

// ResolveHazard applies the on-screen hazard to the first snake with any
// segment on it, player 1 before player 2. At most one victim per tick.
func (c *CollisionEngine) ResolveHazard(st *SessionState) (HazardHit, bool) {
	hazard := st.Hazard
	if hazard == nil || !c.board.IsOnScreen(hazard.Pos) {
		return HazardHit{}, false
	}

	for i, s := range st.Snakes {
		if s == nil || !s.Contains(hazard.Pos) {
			continue
		}

		hit := HazardHit{Player: i + 1, OldLength: s.Len()}
		score := st.Scores[i]
		hit.Penalty = (score + 1) / 2
		st.Scores[i] = score - hit.Penalty
		if st.Scores[i] < 0 {
			st.Scores[i] = 0
		}
		st.highlight(hit.Player, false)

		if s.Len() <= c.cfg.MinSnakeLength {
			hit.Eliminated = true
			hit.NewLength = s.Len()
		} else {
			n := s.Len() / 2
			if n < c.cfg.MinSnakeLength {
				n = c.cfg.MinSnakeLength
			}
			s.Body = s.Body[:n]
			hit.NewLength = n
		}

		st.Hazard = nil
		c.spawner.RedrawHazard(&st.Timers)
		return hit, true
	}
	return HazardHit{}, false
}
