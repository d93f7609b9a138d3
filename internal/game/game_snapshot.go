package game

import (
	"sync/atomic"
	"time"
)

// SnakeSnapshot is an immutable copy of one snake
type SnakeSnapshot struct {
	Player    int        `json:"player"`
	Body      []Position `json:"body"`
	Direction Direction  `json:"direction"`
}

// TransientSnapshot is an immutable copy of a bonus food or hazard slot
type TransientSnapshot struct {
	Present          bool      `json:"present"`
	Visible          bool      `json:"visible"` // On-screen, drawable and collidable
	Pos              Position  `json:"pos"`
	Direction        Direction `json:"direction"`
	HasEnteredScreen bool      `json:"hasEnteredScreen"`
}

// GameSnapshot is the read-only per-tick view handed to presentation collaborators
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick"`

	Mode    Mode  `json:"mode"`
	Running bool  `json:"running"`
	Board   Board `json:"board"`

	Snakes     []SnakeSnapshot   `json:"snakes"`
	Food       Position          `json:"food"`
	BonusFood  TransientSnapshot `json:"bonusFood"`
	Hazard     TransientSnapshot `json:"hazard"`
	Scores     [2]int            `json:"scores"`
	Highlights []ScoreHighlight  `json:"highlights"`

	GameOver *GameOverEvent `json:"gameOver,omitempty"`
}

// Clone returns a deep copy that stays valid after the pool slot is reused
func (s *GameSnapshot) Clone() *GameSnapshot {
	out := *s
	out.Snakes = make([]SnakeSnapshot, len(s.Snakes))
	for i, sn := range s.Snakes {
		out.Snakes[i] = sn
		out.Snakes[i].Body = append([]Position(nil), sn.Body...)
	}
	out.Highlights = append([]ScoreHighlight(nil), s.Highlights...)
	if s.GameOver != nil {
		g := *s.GameOver
		out.GameOver = &g
	}
	return &out
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering for a single producer (the tick) and many readers.
type SnapshotPool struct {
	snapshots [3]GameSnapshot
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool sized for two snakes on a board of the given area
func NewSnapshotPool(board Board) *SnapshotPool {
	pool := &SnapshotPool{}
	area := board.VisibleSize * board.VisibleSize
	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Board:      board,
			Snakes:     []SnakeSnapshot{{Body: make([]Position, 0, area)}, {Body: make([]Position, 0, area)}},
			Highlights: make([]ScoreHighlight, 0, 4),
		}
		pool.snapshots[i].Snakes = pool.snapshots[i].Snakes[:0]
	}
	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the tick).
// Slices are reset but keep their capacity.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Snakes = snap.Snakes[:0]
	snap.Highlights = snap.Highlights[:0]
	snap.BonusFood = TransientSnapshot{}
	snap.Hazard = TransientSnapshot{}
	snap.GameOver = nil

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// appendSnake copies s into the next snake slot, reusing its body buffer
func (snap *GameSnapshot) appendSnake(s *Snake) {
	n := len(snap.Snakes)
	if n < cap(snap.Snakes) {
		snap.Snakes = snap.Snakes[:n+1]
	} else {
		snap.Snakes = append(snap.Snakes, SnakeSnapshot{})
	}
	slot := &snap.Snakes[n]
	slot.Player = s.Player
	slot.Direction = s.Direction
	slot.Body = append(slot.Body[:0], s.Body...)
}

// PublishWrite marks the write complete and advances the read pointer
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only)
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}
