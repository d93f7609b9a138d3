package game

import (
	"testing"

	"snake-duel/internal/config"
)

// scriptedRandom replays fixed values so tests can pin exact outcomes.
// Exhausted scripts fall back to 0, which keeps the AI on its scored path.
type scriptedRandom struct {
	ints   []int
	floats []float64
}

func (r *scriptedRandom) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func testConfig() config.GameConfig {
	return config.DefaultGame()
}

func testBoard() Board {
	return NewBoard(testConfig())
}

// newManualEngine returns an engine driven by explicit Tick calls
func newManualEngine(t *testing.T, rng Random) *Engine {
	t.Helper()
	if rng == nil {
		rng = NewRandom(42)
	}
	return NewEngine(EngineConfig{Game: testConfig(), Random: rng, ManualTick: true})
}

// body builds a snake body from alternating row, col pairs
func body(coords ...int) []Position {
	out := make([]Position, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, Position{Row: coords[i], Col: coords[i+1]})
	}
	return out
}

// quietTimers keeps transient entities from spawning during a test
func quietTimers(st *SessionState) {
	st.Timers.BonusCountdown = 1 << 20
	st.Timers.HazardCountdown = 1 << 20
}
