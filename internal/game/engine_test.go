package game

import (
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// TestNewEngine verifies a fresh engine is idle
func TestNewEngine(t *testing.T) {
	engine := newManualEngine(t, nil)

	if engine.Running() {
		t.Error("New engine should be stopped")
	}
	if _, over := engine.GameOver(); over {
		t.Error("New engine should have no game-over event")
	}
	if engine.TickPeriod() != 150*time.Millisecond {
		t.Errorf("Expected 150ms tick period, got %v", engine.TickPeriod())
	}

	engine.Tick()
	if engine.GetSnapshot().TickNumber != 0 {
		t.Error("Tick on a stopped engine should be a no-op")
	}
}

// TestStartSingleLayout verifies the single-player starting snake and the first tick
func TestStartSingleLayout(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	if err := engine.Start(ModeSingle); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snap := engine.GetSnapshot()
	if len(snap.Snakes) != 1 {
		t.Fatalf("Expected one snake, got %d", len(snap.Snakes))
	}
	if !reflect.DeepEqual(snap.Snakes[0].Body, body(15, 15, 15, 14, 15, 13)) {
		t.Errorf("Unexpected starting body %v", snap.Snakes[0].Body)
	}
	if snap.Food != (Position{5, 5}) {
		t.Errorf("Expected food at first free cell, got %v", snap.Food)
	}

	engine.Tick()
	snap = engine.GetSnapshot()
	if snap.TickNumber != 1 {
		t.Errorf("Expected tick 1, got %d", snap.TickNumber)
	}
	if snap.Snakes[0].Body[0] != (Position{15, 16}) || len(snap.Snakes[0].Body) != 3 {
		t.Errorf("Expected head (15,16) length 3, got %v", snap.Snakes[0].Body)
	}
	if snap.Scores != [2]int{} {
		t.Errorf("Expected zero scores, got %v", snap.Scores)
	}
}

// TestStartMultiplayerLayout verifies the mirrored two-snake start
func TestStartMultiplayerLayout(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	if err := engine.Start(ModeLocal); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snap := engine.GetSnapshot()
	if len(snap.Snakes) != 2 {
		t.Fatalf("Expected two snakes, got %d", len(snap.Snakes))
	}
	if !reflect.DeepEqual(snap.Snakes[0].Body, body(12, 12, 12, 11, 12, 10)) || snap.Snakes[0].Direction != DirRight {
		t.Errorf("Unexpected player 1 start %v %s", snap.Snakes[0].Body, snap.Snakes[0].Direction)
	}
	if !reflect.DeepEqual(snap.Snakes[1].Body, body(17, 17, 17, 18, 17, 19)) || snap.Snakes[1].Direction != DirLeft {
		t.Errorf("Unexpected player 2 start %v %s", snap.Snakes[1].Body, snap.Snakes[1].Direction)
	}
}

func TestStartUnknownMode(t *testing.T) {
	engine := newManualEngine(t, nil)
	if err := engine.Start(Mode(9)); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
}

func TestFoodEaten(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)
	engine.state.Food = Position{15, 16}

	engine.Tick()

	snap := engine.GetSnapshot()
	if snap.Scores[0] != 1 {
		t.Errorf("Expected score 1, got %d", snap.Scores[0])
	}
	if len(snap.Snakes[0].Body) != 4 {
		t.Errorf("Expected length 4, got %d", len(snap.Snakes[0].Body))
	}
	if snap.Food == (Position{15, 16}) {
		t.Error("Food should be relocated after being eaten")
	}

	events := engine.EventLog().Recent(1)
	if len(events) != 1 || events[0].Type != EventTypeFoodEaten {
		t.Errorf("Expected a food event, got %v", events)
	}
}

func TestBonusCollected(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)
	engine.state.BonusFood = &TransientEntity{Kind: KindBonusFood, Pos: Position{15, 16}, Direction: DirUp, HasEnteredScreen: true}

	engine.Tick()

	snap := engine.GetSnapshot()
	if snap.Scores[0] != 5 {
		t.Errorf("Expected score 5, got %d", snap.Scores[0])
	}
	if len(snap.Snakes[0].Body) != 5 {
		t.Errorf("Expected length 5, got %d", len(snap.Snakes[0].Body))
	}
	if snap.BonusFood.Present {
		t.Error("Bonus food should be gone")
	}
	if len(snap.Highlights) != 1 || !snap.Highlights[0].Gold || snap.Highlights[0].Player != 1 {
		t.Errorf("Expected a gold highlight for player 1, got %v", snap.Highlights)
	}

	engine.Tick()
	if len(engine.GetSnapshot().Highlights) != 0 {
		t.Error("Highlights should last a single tick")
	}
}

// TestOffScreenBonusNotCollidable verifies an entity waiting at the virtual edge is inert
func TestOffScreenBonusNotCollidable(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)
	engine.state.BonusFood = &TransientEntity{Kind: KindBonusFood, Pos: Position{29, 16}, Direction: DirUp}

	engine.Tick()

	snap := engine.GetSnapshot()
	if snap.Scores[0] != 0 {
		t.Errorf("Off-screen bonus should not score, got %d", snap.Scores[0])
	}
	if !snap.BonusFood.Present || snap.BonusFood.Visible {
		t.Errorf("Expected a present but hidden bonus, got %+v", snap.BonusFood)
	}
}

func TestHazardHalvesSnake(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)

	s := engine.state.Snakes[0]
	s.Body = body(15, 15, 15, 14, 15, 13, 15, 12, 15, 11, 15, 10)
	engine.state.Scores[0] = 7
	engine.state.Hazard = &TransientEntity{Kind: KindHazard, Pos: Position{15, 13}, Direction: DirUp, HasEnteredScreen: true}

	engine.Tick()

	snap := engine.GetSnapshot()
	if !snap.Running {
		t.Fatal("Hazard on a long snake should not end the game")
	}
	if len(snap.Snakes[0].Body) != 3 {
		t.Errorf("Expected length 3, got %d", len(snap.Snakes[0].Body))
	}
	if snap.Scores[0] != 3 {
		t.Errorf("Expected score 7-ceil(7/2)=3, got %d", snap.Scores[0])
	}
	if snap.Hazard.Present {
		t.Error("Hazard should be consumed")
	}
	if len(snap.Highlights) != 1 || snap.Highlights[0].Gold {
		t.Errorf("Expected a red highlight, got %v", snap.Highlights)
	}
}

func TestHazardEliminatesShortSnake(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)
	engine.state.Hazard = &TransientEntity{Kind: KindHazard, Pos: Position{15, 14}, Direction: DirUp, HasEnteredScreen: true}

	engine.Tick()

	over, ok := engine.GameOver()
	if !ok {
		t.Fatal("Expected game over")
	}
	if over.Cause != CauseHazard || over.Eliminated != 1 || over.Winner != WinnerNone {
		t.Errorf("Unexpected game over %+v", over)
	}
	if engine.Running() {
		t.Error("Engine should be stopped")
	}
}

func TestDirectionInput(t *testing.T) {
	tests := []struct {
		name string
		dirs []Direction
		want Position
	}{
		{"turn up", []Direction{DirUp}, Position{14, 15}},
		{"reverse ignored", []Direction{DirLeft}, Position{15, 16}},
		{"latest wins", []Direction{DirUp, DirDown}, Position{16, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newManualEngine(t, &scriptedRandom{})
			engine.Start(ModeSingle)

			for _, d := range tt.dirs {
				if err := engine.SetIntendedDirection(1, d); err != nil {
					t.Fatalf("SetIntendedDirection(%s) failed: %v", d, err)
				}
			}
			engine.Tick()

			if head := engine.GetSnapshot().Snakes[0].Body[0]; head != tt.want {
				t.Errorf("Expected head %v, got %v", tt.want, head)
			}
		})
	}
}

func TestDirectionInputErrors(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})

	if err := engine.SetIntendedDirection(1, DirUp); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning, got %v", err)
	}

	engine.Start(ModeCPU)
	if err := engine.SetIntendedDirection(2, DirUp); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("CPU snake should reject input, got %v", err)
	}
	if err := engine.SetIntendedDirection(3, DirUp); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("Expected ErrInvalidPlayer, got %v", err)
	}
	if err := engine.SetIntendedDirection(1, Direction(7)); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}

	engine.Start(ModeLocal)
	if err := engine.SetIntendedDirection(2, DirUp); err != nil {
		t.Errorf("Local player 2 should accept input, got %v", err)
	}
}

func TestWallElimination(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)

	s := engine.state.Snakes[0]
	s.Body = body(5, 10, 6, 10, 7, 10)
	s.Direction, s.Next = DirUp, DirUp

	engine.Tick()

	over, ok := engine.GameOver()
	if !ok || over.Cause != CauseWall || over.Eliminated != 1 {
		t.Fatalf("Expected wall elimination, got %+v", over)
	}

	snap := engine.GetSnapshot()
	if snap.Running || snap.GameOver == nil {
		t.Error("Final snapshot should carry the game-over event")
	}
	if snap.Snakes[0].Body[0] != (Position{5, 10}) {
		t.Error("Fatal move must not be committed")
	}
}

// TestSelfCollisionExcludesTail verifies chasing the tail is legal
func TestSelfCollisionExcludesTail(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)

	s := engine.state.Snakes[0]
	s.Body = body(10, 10, 10, 11, 11, 11, 11, 10)
	s.Direction, s.Next = DirLeft, DirLeft
	engine.SetIntendedDirection(1, DirDown)

	engine.Tick()
	if !engine.Running() {
		t.Fatal("Moving into the vacating tail should be legal")
	}

	s.Body = body(10, 10, 10, 11, 11, 11, 11, 10, 12, 10)
	s.Direction, s.Next = DirLeft, DirDown
	engine.Tick()

	over, ok := engine.GameOver()
	if !ok || over.Cause != CauseSelf {
		t.Errorf("Expected self collision, got %+v", over)
	}
}

func TestMultiplayerWallElimination(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeLocal)

	p2 := engine.state.Snakes[1]
	p2.Body = body(20, 5, 20, 6, 20, 7)
	p2.Direction, p2.Next = DirLeft, DirLeft

	engine.Tick()

	over, ok := engine.GameOver()
	if !ok {
		t.Fatal("Expected game over")
	}
	if over.Eliminated != 2 || over.Winner != WinnerPlayer1 {
		t.Errorf("Expected player 1 to win, got %+v", over)
	}
}

// TestHeadToHead verifies player 1 moves first and dies on player 2's head
func TestHeadToHead(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeLocal)

	p1, p2 := engine.state.Snakes[0], engine.state.Snakes[1]
	p1.Body = body(10, 10, 10, 9, 10, 8)
	p1.Direction, p1.Next = DirRight, DirRight
	p2.Body = body(10, 11, 10, 12, 10, 13)
	p2.Direction, p2.Next = DirLeft, DirLeft

	engine.Tick()

	over, _ := engine.GameOver()
	if over.Eliminated != 1 || over.Cause != CauseOpponent || over.Winner != WinnerPlayer2 {
		t.Errorf("Expected player 1 eliminated by opponent, got %+v", over)
	}
}

func TestStopVerdict(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		scores [2]int
		want   Winner
	}{
		{"player 1 ahead", ModeLocal, [2]int{3, 1}, WinnerPlayer1},
		{"player 2 ahead", ModeCPU, [2]int{0, 4}, WinnerPlayer2},
		{"level", ModeLocal, [2]int{2, 2}, WinnerTie},
		{"single player", ModeSingle, [2]int{9, 0}, WinnerNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newManualEngine(t, &scriptedRandom{})
			engine.Start(tt.mode)
			engine.state.Scores = tt.scores

			engine.Stop()

			over, ok := engine.GameOver()
			if !ok {
				t.Fatal("Stop should publish a game-over event")
			}
			if over.Winner != tt.want || over.Eliminated != 0 || over.Cause != CauseNone {
				t.Errorf("Unexpected verdict %+v", over)
			}
			if over.Score1 != tt.scores[0] || over.Score2 != tt.scores[1] {
				t.Errorf("Expected scores %v, got %d-%d", tt.scores, over.Score1, over.Score2)
			}

			engine.Stop()
			if again, _ := engine.GameOver(); again != over {
				t.Error("Second Stop should not change the verdict")
			}
		})
	}
}

func TestOnGameOverCallback(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})

	done := make(chan GameOverEvent, 1)
	engine.OnGameOver(func(ev GameOverEvent) { done <- ev })

	engine.Start(ModeSingle)
	engine.Stop()

	select {
	case ev := <-done:
		if ev.Mode != ModeSingle {
			t.Errorf("Expected single mode event, got %s", ev.Mode)
		}
	case <-time.After(time.Second):
		t.Fatal("Game-over callback was not called")
	}
}

// TestInvariantViolationHalts verifies a corrupted state aborts without a verdict
func TestInvariantViolationHalts(t *testing.T) {
	engine := newManualEngine(t, &scriptedRandom{})
	engine.Start(ModeSingle)
	engine.state.Food = Position{0, 0}

	engine.Tick()

	var ie *InvariantError
	if !errors.As(engine.LastError(), &ie) {
		t.Fatalf("Expected an invariant error, got %v", engine.LastError())
	}
	if engine.Running() {
		t.Error("Engine should halt on invariant violation")
	}
	if _, over := engine.GameOver(); over {
		t.Error("Invariant abort should not produce a game-over event")
	}

	if err := engine.Start(ModeSingle); err != nil || engine.LastError() != nil {
		t.Errorf("Restart should clear the error, got %v / %v", err, engine.LastError())
	}
}

// TestCPUModeDrivesPlayerTwo verifies the CPU snake moves without input
func TestCPUModeDrivesPlayerTwo(t *testing.T) {
	engine := newManualEngine(t, NewRandom(3))
	engine.Start(ModeCPU)

	before := engine.GetSnapshot().Clone()
	engine.Tick()
	after := engine.GetSnapshot()

	if !after.Running {
		t.Fatal("Opening move should be safe for both snakes")
	}
	if before.Snakes[1].Body[0] == after.Snakes[1].Body[0] {
		t.Error("CPU snake should have moved")
	}
	if d := after.Snakes[1].Direction; d == DirRight {
		t.Error("CPU snake must not reverse on its first move")
	}
}

// TestDeterministicReplay verifies identical seeds produce identical sessions
func TestDeterministicReplay(t *testing.T) {
	run := func() []*GameSnapshot {
		engine := newManualEngine(t, NewRandom(1234))
		engine.Start(ModeCPU)

		var out []*GameSnapshot
		for i := 0; i < 300 && engine.Running(); i++ {
			if i%7 == 0 {
				engine.SetIntendedDirection(1, Directions[i%4])
			}
			engine.Tick()
			snap := engine.GetSnapshot().Clone()
			snap.Sequence, snap.Timestamp = 0, time.Time{}
			out = append(out, snap)
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("Runs diverged in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			t.Fatalf("Runs diverged at tick %d", i+1)
		}
	}
}

// TestInvariantsHoldUnderPlay runs long random sessions and checks the grid rules
func TestInvariantsHoldUnderPlay(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		engine := newManualEngine(t, NewRandom(seed))
		engine.Start(ModeCPU)
		b := engine.Board()

		for i := 0; i < 500 && engine.Running(); i++ {
			engine.SetIntendedDirection(1, engine.ai.NextDirection(engine.state, 1))
			engine.Tick()
			snap := engine.GetSnapshot()
			for _, s := range snap.Snakes {
				if len(s.Body) < 3 {
					t.Fatalf("seed %d: snake %d shorter than 3", seed, s.Player)
				}
				if snap.Running && !b.IsOnScreen(s.Body[0]) {
					t.Fatalf("seed %d: head %v off-screen while running", seed, s.Body[0])
				}
			}
			if !b.IsOnScreen(snap.Food) {
				t.Fatalf("seed %d: food %v off-screen", seed, snap.Food)
			}
		}
		if err := engine.LastError(); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
	}
}

// TestConcurrentAccess exercises input and snapshot reads against the live ticker
func TestConcurrentAccess(t *testing.T) {
	cfg := testConfig()
	cfg.TickPeriod = time.Millisecond
	engine := NewEngine(EngineConfig{Game: cfg, Random: NewRandom(5)})
	engine.Start(ModeLocal)
	defer engine.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				engine.SetIntendedDirection(id%2+1, Directions[(id+j)%4])
				_ = engine.GetSnapshot().TickNumber
			}
		}(i)
	}
	wg.Wait()
}

// TestGameOverHeadline verifies the human-readable verdicts
func TestGameOverHeadline(t *testing.T) {
	tests := []struct {
		ev   GameOverEvent
		want string
	}{
		{GameOverEvent{Mode: ModeLocal, Winner: WinnerPlayer1}, "Player 1 wins"},
		{GameOverEvent{Mode: ModeLocal, Winner: WinnerPlayer2}, "Player 2 wins"},
		{GameOverEvent{Mode: ModeCPU, Winner: WinnerPlayer2}, "CPU wins"},
		{GameOverEvent{Mode: ModeCPU, Winner: WinnerTie}, "Tie"},
		{GameOverEvent{Mode: ModeSingle, Winner: WinnerNone, Score1: 12}, "Score 12"},
	}

	for _, tt := range tests {
		if got := tt.ev.Headline(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

// TestGameOverEventDecodes verifies the named enums decode from their JSON form
func TestGameOverEventDecodes(t *testing.T) {
	in := GameOverEvent{Mode: ModeCPU, Score1: 2, Score2: 5, Winner: WinnerPlayer2, Eliminated: 1, Cause: CauseHazard, Tick: 77}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out GameOverEvent
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out != in {
		t.Errorf("Expected %+v, got %+v", in, out)
	}

	var w Winner
	if err := w.UnmarshalText([]byte("bogus")); err != nil || w != WinnerNone {
		t.Errorf("Unknown verdict should decode as none, got %s err=%v", w, err)
	}
}
