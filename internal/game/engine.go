package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"snake-duel/internal/config"
)

// Winner is the verdict carried by a game-over event
type Winner uint8

const (
	WinnerNone Winner = iota // Single player: no winner concept
	WinnerPlayer1
	WinnerPlayer2
	WinnerTie
)

func (w Winner) String() string {
	switch w {
	case WinnerPlayer1:
		return "player1"
	case WinnerPlayer2:
		return "player2"
	case WinnerTie:
		return "tie"
	default:
		return "none"
	}
}

// MarshalText encodes the verdict by name
func (w Winner) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes a verdict name; unrecognized names decode as none
func (w *Winner) UnmarshalText(b []byte) error {
	for _, v := range []Winner{WinnerPlayer1, WinnerPlayer2, WinnerTie} {
		if v.String() == string(b) {
			*w = v
			return nil
		}
	}
	*w = WinnerNone
	return nil
}

// GameOverEvent is emitted once when a session stops
type GameOverEvent struct {
	Mode       Mode       `json:"mode"`
	Score1     int        `json:"score1"`
	Score2     int        `json:"score2"`
	Winner     Winner     `json:"winner"`
	Eliminated int        `json:"eliminated,omitempty"` // Player eliminated, 0 when stopped
	Cause      DeathCause `json:"cause"`
	Tick       uint64     `json:"tick"`
}

// Headline is a short human-readable verdict
func (ev GameOverEvent) Headline() string {
	switch ev.Winner {
	case WinnerPlayer1:
		return "Player 1 wins"
	case WinnerPlayer2:
		if ev.Mode == ModeCPU {
			return "CPU wins"
		}
		return "Player 2 wins"
	case WinnerTie:
		return "Tie"
	default:
		return fmt.Sprintf("Score %d", ev.Score1)
	}
}

// TickObserver receives per-tick measurements. Implementations must not block.
type TickObserver interface {
	RecordTick(duration time.Duration)
	RecordScores(scores [2]int)
	RecordGameOver(event GameOverEvent)
}

// EngineConfig configures a new Engine
type EngineConfig struct {
	Game config.GameConfig

	// Random is the randomness source. Nil seeds one from the clock.
	Random Random

	// ManualTick disables the internal ticker; callers drive Tick() themselves.
	ManualTick bool

	Observer TickObserver
}

// Engine is the tick scheduler. It owns the SessionState and is its sole mutator:
// ticks run one at a time under mu and input is buffered until the next tick.
type Engine struct {
	mu sync.Mutex

	cfg   config.GameConfig
	board Board
	rng   Random

	spawner    *SpawnScheduler
	collisions *CollisionEngine
	ai         *AIController

	state   *SessionState
	running bool

	pending    [2]Direction
	hasPending [2]bool

	manual   bool
	stopChan chan struct{}

	gameOver   *GameOverEvent
	onGameOver func(GameOverEvent)
	lastErr    error

	snapshotPool *SnapshotPool
	eventLog     *EventLog
	observer     TickObserver
}

// NewEngine creates an engine in the Stopped state
func NewEngine(cfg EngineConfig) *Engine {
	rng := cfg.Random
	if rng == nil {
		rng = NewRandom(time.Now().UnixNano())
	}
	board := NewBoard(cfg.Game)
	spawner := NewSpawnScheduler(cfg.Game, board, rng)

	e := &Engine{
		cfg:          cfg.Game,
		board:        board,
		rng:          rng,
		spawner:      spawner,
		collisions:   NewCollisionEngine(cfg.Game, board, rng, spawner),
		ai:           NewAIController(cfg.Game, board, rng),
		manual:       cfg.ManualTick,
		snapshotPool: NewSnapshotPool(board),
		eventLog:     NewEventLog(),
		observer:     cfg.Observer,
	}
	return e
}

// Start begins a new session in mode, replacing any session in progress
func (e *Engine) Start(mode Mode) error {
	if mode > ModeCPU {
		return ErrUnknownMode
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLoopLocked()

	st := &SessionState{Mode: mode}
	v := e.cfg.VirtualSize
	length := e.cfg.InitialSnakeLength
	if mode == ModeSingle {
		st.Snakes[0] = NewSnake(1, Position{Row: v / 2, Col: v / 2}, DirRight, length)
	} else {
		o := e.cfg.Offset()
		st.Snakes[0] = NewSnake(1, Position{Row: v/4 + o, Col: v/4 + o}, DirRight, length)
		st.Snakes[1] = NewSnake(2, Position{Row: v*3/4 - o, Col: v*3/4 - o}, DirLeft, length)
	}

	e.spawner.Reset(&st.Timers)
	e.collisions.PlaceFood(st)

	e.state = st
	e.running = true
	e.gameOver = nil
	e.lastErr = nil
	e.hasPending = [2]bool{}

	e.eventLog.EmitSimple(EventTypeSessionStart, 0, 0, SessionStartPayload{
		Mode:            mode,
		Food:            st.Food,
		BonusCountdown:  st.Timers.BonusCountdown,
		HazardCountdown: st.Timers.HazardCountdown,
	})
	e.produceSnapshotLocked()

	if !e.manual {
		e.startLoopLocked()
	}

	log.Printf("🐍 Session started: mode=%s food=(%d,%d)", mode, st.Food.Row, st.Food.Col)
	return nil
}

// Stop forces the Stopped state. A running session ends with a score verdict.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLoopLocked()
	if !e.running {
		return
	}
	e.finishLocked(0, CauseNone)
	e.produceSnapshotLocked()
	log.Println("🛑 Session stopped")
}

func (e *Engine) startLoopLocked() {
	stop := make(chan struct{})
	e.stopChan = stop
	ticker := time.NewTicker(e.cfg.TickPeriod)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-stop:
				return
			}
		}
	}()
}

func (e *Engine) stopLoopLocked() {
	if e.stopChan != nil {
		close(e.stopChan)
		e.stopChan = nil
	}
}

// SetIntendedDirection buffers a direction request for player.
// A request reversing the snake's current heading is silently ignored.
func (e *Engine) SetIntendedDirection(player int, dir Direction) error {
	if dir > DirRight {
		return ErrInvalidDirection
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrNotRunning
	}
	if !e.acceptsInputLocked(player) {
		return ErrInvalidPlayer
	}

	if dir == e.state.Snake(player).Direction.Opposite() {
		return nil
	}
	e.pending[player-1] = dir
	e.hasPending[player-1] = true
	return nil
}

func (e *Engine) acceptsInputLocked(player int) bool {
	switch player {
	case 1:
		return true
	case 2:
		return e.state.Mode == ModeLocal
	default:
		return false
	}
}

// Tick advances the running session by one step. It is a no-op when stopped.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			e.abortLocked(ie)
		}
	}()

	e.stepLocked()

	if e.observer != nil {
		e.observer.RecordTick(time.Since(start))
		e.observer.RecordScores(e.state.Scores)
	}
}

// stepLocked runs the fixed per-tick sequence:
// input → AI → movement → bonus food → hazard → spawn bookkeeping → snapshot
func (e *Engine) stepLocked() {
	st := e.state
	st.Tick++
	st.Highlights = st.Highlights[:0]
	e.checkInvariantsLocked()

	for i := range e.hasPending {
		if e.hasPending[i] && st.Snakes[i] != nil {
			st.Snakes[i].Next = e.pending[i]
		}
		e.hasPending[i] = false
	}

	if st.Mode == ModeCPU {
		st.Snakes[1].Next = e.ai.NextDirection(st, 2)
	}

	for i, s := range st.Snakes {
		if s == nil {
			continue
		}
		player := i + 1
		head := Step(s.Head(), s.Next)
		if cause := e.collisions.CheckMove(st, player, head); cause != CauseNone {
			s.Direction = s.Next
			e.eliminateLocked(player, cause, head)
			return
		}

		AdvanceSnake(s, s.Next)
		if e.collisions.ResolveFood(st, player) {
			e.eventLog.EmitSimple(EventTypeFoodEaten, st.Tick, player,
				ScorePayload{Score: st.Scores[i], Length: s.Len(), At: head})
		}
	}

	if player := e.collisions.ResolveBonusFood(st); player != 0 {
		s := st.Snake(player)
		e.eventLog.EmitSimple(EventTypeBonusCollected, st.Tick, player,
			ScorePayload{Score: st.Scores[player-1], Length: s.Len(), At: s.Head()})
	}

	if hit, ok := e.collisions.ResolveHazard(st); ok {
		e.eventLog.EmitSimple(EventTypeHazardHit, st.Tick, hit.Player, hit)
		if hit.Eliminated {
			e.eliminateLocked(hit.Player, CauseHazard, st.Snake(hit.Player).Head())
			return
		}
	}

	report := e.spawner.Update(st)
	e.logSpawnsLocked(report)

	e.checkInvariantsLocked()
	e.produceSnapshotLocked()
}

func (e *Engine) logSpawnsLocked(r SpawnReport) {
	tick := e.state.Tick
	for _, spawned := range []*TransientEntity{r.BonusSpawned, r.HazardSpawned} {
		if spawned != nil {
			e.eventLog.EmitSimple(EventTypeSpawn, tick, 0, TransientPayload{
				Kind: spawned.Kind.String(), Pos: spawned.Pos, Direction: spawned.Direction,
			})
		}
	}
	if r.BonusExpired {
		e.eventLog.EmitSimple(EventTypeDespawn, tick, 0, TransientPayload{Kind: KindBonusFood.String(), Reason: "crossed"})
	}
	if r.HazardExpired {
		e.eventLog.EmitSimple(EventTypeDespawn, tick, 0, TransientPayload{Kind: KindHazard.String(), Reason: "crossed"})
	}
}

// eliminateLocked ends the session; in multiplayer the other player wins
func (e *Engine) eliminateLocked(player int, cause DeathCause, head Position) {
	e.eventLog.EmitSimple(EventTypeElimination, e.state.Tick, player,
		EliminationPayload{Cause: cause, Head: head})
	log.Printf("💀 Player %d eliminated (%s) at tick %d", player, cause, e.state.Tick)

	e.finishLocked(player, cause)
	e.produceSnapshotLocked()
}

// finishLocked transitions to Stopped and publishes the game-over event
func (e *Engine) finishLocked(eliminated int, cause DeathCause) {
	st := e.state
	ev := GameOverEvent{
		Mode:       st.Mode,
		Score1:     st.Scores[0],
		Score2:     st.Scores[1],
		Eliminated: eliminated,
		Cause:      cause,
		Tick:       st.Tick,
	}

	switch {
	case st.Mode == ModeSingle:
		ev.Winner = WinnerNone
	case eliminated == 1:
		ev.Winner = WinnerPlayer2
	case eliminated == 2:
		ev.Winner = WinnerPlayer1
	case st.Scores[0] > st.Scores[1]:
		ev.Winner = WinnerPlayer1
	case st.Scores[1] > st.Scores[0]:
		ev.Winner = WinnerPlayer2
	default:
		ev.Winner = WinnerTie
	}

	e.running = false
	e.stopLoopLocked()
	e.gameOver = &ev

	e.eventLog.EmitSimple(EventTypeGameOver, st.Tick, eliminated, ev)
	log.Printf("🏁 Game over: mode=%s score=%d-%d winner=%s", ev.Mode, ev.Score1, ev.Score2, ev.Winner)

	if e.observer != nil {
		e.observer.RecordGameOver(ev)
	}
	if e.onGameOver != nil {
		go e.onGameOver(ev)
	}
}

// abortLocked handles an invariant violation: the tick is abandoned and the session halted
func (e *Engine) abortLocked(ie *InvariantError) {
	e.lastErr = ie
	e.running = false
	e.stopLoopLocked()
	e.eventLog.EmitSimple(EventTypeInvariant, ie.Tick, 0, InvariantPayload{Detail: ie.Detail})
	log.Printf("❌ %v", ie)
}

func (e *Engine) checkInvariantsLocked() {
	st := e.state
	for _, s := range st.Snakes {
		if s == nil {
			continue
		}
		if len(s.Body) == 0 {
			invariantf(st.Tick, "player %d snake has no segments", s.Player)
		}
		for _, p := range s.Body {
			if !e.board.InVirtualGrid(p) {
				invariantf(st.Tick, "player %d segment (%d,%d) outside virtual grid", s.Player, p.Row, p.Col)
			}
		}
	}
	for _, t := range []*TransientEntity{st.BonusFood, st.Hazard} {
		if t != nil && !e.board.InVirtualGrid(t.Pos) {
			invariantf(st.Tick, "%s at (%d,%d) outside virtual grid", t.Kind, t.Pos.Row, t.Pos.Col)
		}
	}
	if !e.board.IsOnScreen(st.Food) {
		invariantf(st.Tick, "food (%d,%d) outside visible window", st.Food.Row, st.Food.Col)
	}
}

func (e *Engine) produceSnapshotLocked() {
	st := e.state
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = st.Tick
	snap.Mode = st.Mode
	snap.Running = e.running
	snap.Board = e.board
	snap.Food = st.Food
	snap.Scores = st.Scores

	for _, s := range st.Snakes {
		if s != nil {
			snap.appendSnake(s)
		}
	}
	snap.BonusFood = e.transientSnapshot(st.BonusFood)
	snap.Hazard = e.transientSnapshot(st.Hazard)
	snap.Highlights = append(snap.Highlights, st.Highlights...)
	if e.gameOver != nil {
		g := *e.gameOver
		snap.GameOver = &g
	}

	e.snapshotPool.PublishWrite()
}

func (e *Engine) transientSnapshot(t *TransientEntity) TransientSnapshot {
	if t == nil {
		return TransientSnapshot{}
	}
	return TransientSnapshot{
		Present:          true,
		Visible:          e.board.IsOnScreen(t.Pos),
		Pos:              t.Pos,
		Direction:        t.Direction,
		HasEnteredScreen: t.HasEnteredScreen,
	}
}

// GetSnapshot returns the latest published snapshot (lock-free)
func (e *Engine) GetSnapshot() *GameSnapshot {
	return e.snapshotPool.AcquireRead()
}

// GameOver returns the last game-over event, if the last session has ended
func (e *Engine) GameOver() (GameOverEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gameOver == nil {
		return GameOverEvent{}, false
	}
	return *e.gameOver, true
}

// OnGameOver registers a callback invoked asynchronously after each game over
func (e *Engine) OnGameOver(fn func(GameOverEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onGameOver = fn
}

// Running reports whether a session is in progress
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// LastError returns the invariant violation that halted the last session, if any
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Board returns the grid geometry
func (e *Engine) Board() Board {
	return e.board
}

// TickPeriod returns the configured tick cadence
func (e *Engine) TickPeriod() time.Duration {
	return e.cfg.TickPeriod
}

// EventLog returns the session event log
func (e *Engine) EventLog() *EventLog {
	return e.eventLog
}

// StartEventLog persists the event log to filePath
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and closes the event log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}
