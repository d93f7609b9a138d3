package game

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// STRESS TEST SUITE: REAL-WORLD LOAD SIMULATION
// Run with: go test -v -run=TestStress -timeout=60s ./internal/game/...
// =============================================================================

// StressTestResult contains metrics from stress tests
type StressTestResult struct {
	Duration        time.Duration
	TotalTicks      int64
	Sessions        int64
	AvgTickTime     time.Duration
	MaxTickTime     time.Duration
	P99TickTime     time.Duration
	CommandsHandled int64
}

// StressTestConfig configures stress test parameters
type StressTestConfig struct {
	Duration         time.Duration
	Mode             Mode
	CommandsPerTick  int
	LatencyThreshold time.Duration
}

// DefaultStressConfig returns a stress config with heavy input traffic
func DefaultStressConfig() StressTestConfig {
	return StressTestConfig{
		Duration:         2 * time.Second,
		Mode:             ModeCPU,
		CommandsPerTick:  20,
		LatencyThreshold: 5 * time.Millisecond, // A tick must stay far below the 150ms period
	}
}

// -----------------------------------------------------------------------------
// STRESS TEST: BACK-TO-BACK SESSIONS
// -----------------------------------------------------------------------------

func TestStress_BackToBackSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	for _, mode := range []Mode{ModeSingle, ModeLocal, ModeCPU} {
		cfg := DefaultStressConfig()
		cfg.Mode = mode

		result := runStressTest(t, cfg)

		if result.AvgTickTime > cfg.LatencyThreshold {
			t.Errorf("%s: average tick time %v exceeds threshold %v", mode, result.AvgTickTime, cfg.LatencyThreshold)
		}

		t.Logf("Stress Test Results (%s):", mode)
		t.Logf("  Duration: %v", result.Duration)
		t.Logf("  Total Ticks: %d", result.TotalTicks)
		t.Logf("  Sessions: %d", result.Sessions)
		t.Logf("  Avg Tick Time: %v", result.AvgTickTime)
		t.Logf("  P99 Tick Time: %v", result.P99TickTime)
		t.Logf("  Max Tick Time: %v", result.MaxTickTime)
		t.Logf("  Commands Handled: %d", result.CommandsHandled)
	}
}

// -----------------------------------------------------------------------------
// STRESS TEST: CONCURRENT COMMANDS
// -----------------------------------------------------------------------------

func TestStress_ConcurrentCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	cfg := testConfig()
	cfg.TickPeriod = 2 * time.Millisecond
	engine := NewEngine(EngineConfig{Game: cfg, Random: NewRandom(11)})
	engine.Start(ModeLocal)
	defer engine.Stop()

	var wg sync.WaitGroup
	var commandsProcessed int64
	var unexpected int64

	numWorkers := 10
	commandsPerWorker := 200

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(workerID)))
			for i := 0; i < commandsPerWorker; i++ {
				switch r.Intn(4) {
				case 0, 1: // Steer
					err := engine.SetIntendedDirection(r.Intn(2)+1, Directions[r.Intn(4)])
					if err != nil && !errors.Is(err, ErrNotRunning) {
						atomic.AddInt64(&unexpected, 1)
					}
				case 2: // Read
					_ = engine.GetSnapshot().Clone()
				case 3: // Restart when the last session ended
					if !engine.Running() {
						engine.Start(ModeLocal)
					}
				}
				atomic.AddInt64(&commandsProcessed, 1)
				time.Sleep(100 * time.Microsecond)
			}
		}(w)
	}

	wg.Wait()

	t.Logf("Concurrent Commands Test:")
	t.Logf("  Commands Processed: %d", commandsProcessed)
	t.Logf("  Unexpected Errors: %d", unexpected)

	if unexpected > 0 {
		t.Errorf("Had %d unexpected errors during concurrent input", unexpected)
	}
	if err := engine.LastError(); err != nil {
		t.Errorf("Engine halted: %v", err)
	}
}

// -----------------------------------------------------------------------------
// STRESS TEST: EVENT LOG PRESSURE
// -----------------------------------------------------------------------------

func TestStress_EventLogPressure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer el.Stop()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				el.EmitSimple(EventTypeSpawn, uint64(i), 0, nil)
			}
		}()
	}
	wg.Wait()

	stats := el.Stats()
	t.Logf("Event Log Pressure:")
	t.Logf("  Stored: %d", stats.Total)
	t.Logf("  Dropped: %d", stats.Dropped)

	if stats.Total == 0 || stats.Total+stats.Dropped < 20000 {
		t.Errorf("Every emit should be stored or dropped, got %d+%d", stats.Total, stats.Dropped)
	}
}

// -----------------------------------------------------------------------------
// HELPER: RUN STRESS TEST
// -----------------------------------------------------------------------------

func runStressTest(t *testing.T, cfg StressTestConfig) StressTestResult {
	t.Helper()

	engine := NewEngine(EngineConfig{Game: testConfig(), Random: NewRandom(99), ManualTick: true})
	input := rand.New(rand.NewSource(7))

	var result StressTestResult
	var tickTimes []time.Duration
	var totalTickTime time.Duration

	deadline := time.Now().Add(cfg.Duration)
	startTime := time.Now()

	for time.Now().Before(deadline) {
		if !engine.Running() {
			if err := engine.LastError(); err != nil {
				t.Fatalf("Engine halted: %v", err)
			}
			engine.Start(cfg.Mode)
			result.Sessions++
		}

		for c := 0; c < cfg.CommandsPerTick; c++ {
			engine.SetIntendedDirection(input.Intn(2)+1, Directions[input.Intn(4)])
			result.CommandsHandled++
		}

		start := time.Now()
		engine.Tick()
		elapsed := time.Since(start)

		tickTimes = append(tickTimes, elapsed)
		totalTickTime += elapsed
		result.TotalTicks++
		if elapsed > result.MaxTickTime {
			result.MaxTickTime = elapsed
		}
	}

	result.Duration = time.Since(startTime)
	if result.TotalTicks > 0 {
		result.AvgTickTime = totalTickTime / time.Duration(result.TotalTicks)
		sort.Slice(tickTimes, func(i, j int) bool { return tickTimes[i] < tickTimes[j] })
		result.P99TickTime = tickTimes[len(tickTimes)*99/100]
	}
	return result
}
