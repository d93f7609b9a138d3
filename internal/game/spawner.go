package game

import "snake-duel/internal/config"

// SpawnReport lists the transient lifecycle changes made by one Update
type SpawnReport struct {
	BonusSpawned  *TransientEntity
	HazardSpawned *TransientEntity
	BonusExpired  bool
	HazardExpired bool
}

// SpawnScheduler owns the countdowns that decide when transient entities
// appear and the counters that decouple their travel speed from the tick rate.
// All of its state lives in SessionState.Timers.
type SpawnScheduler struct {
	cfg   config.GameConfig
	board Board
	rng   Random
}

// NewSpawnScheduler creates a scheduler drawing from rng
func NewSpawnScheduler(cfg config.GameConfig, board Board, rng Random) *SpawnScheduler {
	return &SpawnScheduler{cfg: cfg, board: board, rng: rng}
}

// Reset draws the session-start countdowns and zeroes the move counters
func (s *SpawnScheduler) Reset(t *SpawnTimers) {
	t.BonusCountdown = s.draw(s.cfg.BonusInitialSpawn)
	t.HazardCountdown = s.draw(s.cfg.HazardInitialSpawn)
	t.BonusMoveCounter = 0
	t.HazardMoveCounter = 0
}

// RedrawBonus schedules the next bonus food after a despawn
func (s *SpawnScheduler) RedrawBonus(t *SpawnTimers) {
	t.BonusCountdown = s.draw(s.cfg.BonusRespawn)
}

// RedrawHazard schedules the next hazard after a despawn
func (s *SpawnScheduler) RedrawHazard(t *SpawnTimers) {
	t.HazardCountdown = s.draw(s.cfg.HazardRespawn)
}

func (s *SpawnScheduler) draw(w config.SpawnWindow) int {
	if w.Span() <= 0 {
		return w.Min
	}
	return w.Min + s.rng.Intn(w.Span())
}

// Update runs one tick of spawn bookkeeping and transient movement
func (s *SpawnScheduler) Update(st *SessionState) SpawnReport {
	var report SpawnReport
	t := &st.Timers

	if st.BonusFood == nil {
		if t.BonusCountdown <= 0 {
			st.BonusFood = s.entryPoint(KindBonusFood)
			t.BonusMoveCounter = 0
			report.BonusSpawned = st.BonusFood
		} else {
			t.BonusCountdown--
		}
	}

	t.BonusMoveCounter++
	if t.BonusMoveCounter >= s.cfg.BonusMoveFrequency {
		t.BonusMoveCounter = 0
		if st.BonusFood != nil {
			AdvanceTransient(s.board, st.BonusFood)
			if s.board.HasFullyCrossed(st.BonusFood) {
				st.BonusFood = nil
				s.RedrawBonus(t)
				report.BonusExpired = true
			}
		}
	}

	if st.Hazard == nil {
		if t.HazardCountdown <= 0 {
			st.Hazard = s.entryPoint(KindHazard)
			t.HazardMoveCounter = 0
			report.HazardSpawned = st.Hazard
		} else {
			t.HazardCountdown--
		}
	}

	t.HazardMoveCounter++
	if t.HazardMoveCounter >= s.cfg.HazardMoveFrequency {
		t.HazardMoveCounter = 0
		if st.Hazard != nil {
			AdvanceTransient(s.board, st.Hazard)
			if s.board.HasFullyCrossed(st.Hazard) {
				st.Hazard = nil
				s.RedrawHazard(t)
				report.HazardExpired = true
			}
		}
	}

	return report
}

// entryPoint picks a random travel direction and places the entity on the
// virtual edge it enters from, somewhere within the visible span
func (s *SpawnScheduler) entryPoint(kind TransientKind) *TransientEntity {
	dir := Directions[s.rng.Intn(len(Directions))]
	lane := s.rng.Intn(s.board.VisibleSize) + s.board.Offset
	last := s.board.VirtualSize - 1

	var pos Position
	switch dir {
	case DirUp:
		pos = Position{Row: last, Col: lane}
	case DirDown:
		pos = Position{Row: 0, Col: lane}
	case DirLeft:
		pos = Position{Row: lane, Col: last}
	default:
		pos = Position{Row: lane, Col: 0}
	}

	return &TransientEntity{Kind: kind, Pos: pos, Direction: dir}
}
