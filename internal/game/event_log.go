package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize    = 1024                   // Ring buffer size
	MaxEventsPerSec    = 2000                   // Rate limit for per-tick events
	EventBurst         = MaxEventsPerSec        // One second of events; must exceed EventBufferSize
	BatchFlushSize     = 64                     // Events per batch write
	BatchFlushInterval = 250 * time.Millisecond // How often to flush
)

// EventLog is a bounded, rate-limited ring of session events with an
// asynchronous JSONL writer. Emit never blocks the tick.
type EventLog struct {
	mu      sync.Mutex
	ring    [EventBufferSize]Event
	written uint64 // total events ever stored; next slot is written % size
	flushed uint64 // events handed to the writer

	limiter *rate.Limiter

	stopChan chan struct{}
	stopOnce sync.Once
	writerWg sync.WaitGroup
	running  atomic.Bool

	file *os.File
	out  *bufio.Writer

	dropped atomic.Uint64
}

// EventLogStats is a point-in-time view of the log counters
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
}

// NewEventLog creates an in-memory event log. Call Start to persist it.
func NewEventLog() *EventLog {
	return &EventLog{
		limiter:  rate.NewLimiter(MaxEventsPerSec, EventBurst),
		stopChan: make(chan struct{}),
	}
}

// Start opens filePath for append and launches the writer.
// An empty path keeps the log in memory only.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open event log %s: %w", filePath, err)
		}
		el.file = file
		el.out = bufio.NewWriter(file)
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop flushes pending events and closes the file
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		close(el.stopChan)
		el.writerWg.Wait()
		el.running.Store(false)

		if el.file != nil {
			el.out.Flush()
			el.file.Close()
		}
	})
}

// Emit stores an event. Returns false when the event was rate limited.
// Lifecycle events are never limited. A full ring overwrites the oldest unflushed event.
func (el *EventLog) Emit(event Event) bool {
	if !event.Type.Lifecycle() && !el.limiter.Allow() {
		el.dropped.Add(1)
		return false
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if el.written-el.flushed >= EventBufferSize {
		el.flushed++
		if el.running.Load() {
			el.dropped.Add(1)
		}
	}
	el.written++
	event.Sequence = el.written
	el.ring[(el.written-1)%EventBufferSize] = event
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, player int, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tickNum, player, payload))
}

// Recent returns up to n of the newest events, oldest first
func (el *EventLog) Recent(n int) []Event {
	if n <= 0 {
		return nil
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	avail := el.written
	if avail > EventBufferSize {
		avail = EventBufferSize
	}
	if uint64(n) > avail {
		n = int(avail)
	}

	out := make([]Event, 0, n)
	for seq := el.written - uint64(n); seq < el.written; seq++ {
		out = append(out, el.ring[seq%EventBufferSize])
	}
	return out
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.flushed < el.written && len(batch) < BatchFlushSize {
		batch = append(batch, el.ring[el.flushed%EventBufferSize])
		el.flushed++
	}
	return batch
}

// flushBatch appends events as newline-delimited JSON
func (el *EventLog) flushBatch(batch []Event) {
	if el.out == nil {
		return
	}
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.out.Write(data)
		el.out.WriteByte('\n')
	}
	el.out.Flush()
}

// Stats returns the log counters for monitoring
func (el *EventLog) Stats() EventLogStats {
	el.mu.Lock()
	pending := el.written - el.flushed
	total := el.written
	el.mu.Unlock()

	return EventLogStats{
		Total:   total,
		Dropped: el.dropped.Load(),
		Pending: pending,
		Running: el.running.Load(),
	}
}
