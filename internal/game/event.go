package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeSessionStart
	EventTypeFoodEaten
	EventTypeBonusCollected
	EventTypeHazardHit
	EventTypeSpawn
	EventTypeDespawn
	EventTypeElimination
	EventTypeGameOver
	EventTypeInvariant
)

// EventVersion for backwards compatibility of the JSONL log
const EventVersion uint8 = 1

// Event is one entry of the session event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic, assigned by the log
	TickNum   uint64          `json:"tickNum"`
	Player    int             `json:"player,omitempty"` // 0 for engine-level events
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Lifecycle reports session boundary events, which bypass the event log rate limit
func (t EventType) Lifecycle() bool {
	switch t {
	case EventTypeSessionStart, EventTypeElimination, EventTypeGameOver, EventTypeInvariant:
		return true
	}
	return false
}

func (t EventType) String() string {
	switch t {
	case EventTypeSessionStart:
		return "session_start"
	case EventTypeFoodEaten:
		return "food_eaten"
	case EventTypeBonusCollected:
		return "bonus_collected"
	case EventTypeHazardHit:
		return "hazard_hit"
	case EventTypeSpawn:
		return "spawn"
	case EventTypeDespawn:
		return "despawn"
	case EventTypeElimination:
		return "elimination"
	case EventTypeGameOver:
		return "game_over"
	case EventTypeInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// MarshalText encodes the event type by name
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes an event type name; unrecognized names decode as unknown
func (t *EventType) UnmarshalText(b []byte) error {
	for v := EventTypeSessionStart; v <= EventTypeInvariant; v++ {
		if v.String() == string(b) {
			*t = v
			return nil
		}
	}
	*t = EventTypeUnknown
	return nil
}

// Typed payloads

// SessionStartPayload records the initial layout of a session
type SessionStartPayload struct {
	Mode            Mode     `json:"mode"`
	Food            Position `json:"food"`
	BonusCountdown  int      `json:"bonusCountdown"`
	HazardCountdown int      `json:"hazardCountdown"`
}

// ScorePayload records a scoring change
type ScorePayload struct {
	Score  int      `json:"score"`
	Length int      `json:"length"`
	At     Position `json:"at"`
}

// TransientPayload records a bonus food or hazard appearing or leaving
type TransientPayload struct {
	Kind      string    `json:"kind"`
	Pos       Position  `json:"pos"`
	Direction Direction `json:"direction"`
	Reason    string    `json:"reason,omitempty"`
}

// EliminationPayload records why a player left the game
type EliminationPayload struct {
	Cause DeathCause `json:"cause"`
	Head  Position   `json:"head"`
}

// InvariantPayload records an aborted tick
type InvariantPayload struct {
	Detail string `json:"detail"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, player int, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Player:    player,
		Payload:   EncodePayload(payload),
	}
}
