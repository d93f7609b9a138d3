package game

import (
	"fmt"
	"math/rand"
	"strings"
)

// Mode selects how many snakes play and who controls the second one
type Mode uint8

const (
	ModeSingle Mode = iota // One human snake
	ModeLocal              // Two human snakes
	ModeCPU                // Human player 1 against an AI player 2
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeLocal:
		return "local"
	case ModeCPU:
		return "cpu"
	default:
		return "unknown"
	}
}

// Multiplayer reports whether a second snake takes part
func (m Mode) Multiplayer() bool {
	return m == ModeLocal || m == ModeCPU
}

// MarshalText encodes the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses "single", "local" or "cpu"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return ModeSingle, nil
	case "local":
		return ModeLocal, nil
	case "cpu":
		return ModeCPU, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Random is the injected randomness source. *rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
	Float64() float64
}

// NewRandom returns a seeded source
func NewRandom(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Snake is an ordered body with the head first. Player is 1 or 2.
type Snake struct {
	Player    int
	Body      []Position
	Direction Direction // Heading used on the last tick
	Next      Direction // Heading to use on the next tick
}

// NewSnake lays out length segments starting at head and trailing away from dir
func NewSnake(player int, head Position, dir Direction, length int) *Snake {
	s := &Snake{
		Player:    player,
		Body:      make([]Position, 0, length*4),
		Direction: dir,
		Next:      dir,
	}
	back := dir.Opposite()
	p := head
	for i := 0; i < length; i++ {
		s.Body = append(s.Body, p)
		p = Step(p, back)
	}
	return s
}

// Head returns the first segment
func (s *Snake) Head() Position {
	return s.Body[0]
}

// Tail returns the last segment
func (s *Snake) Tail() Position {
	return s.Body[len(s.Body)-1]
}

// Len returns the number of segments
func (s *Snake) Len() int {
	return len(s.Body)
}

// Contains reports whether any segment occupies p
func (s *Snake) Contains(p Position) bool {
	if s == nil {
		return false
	}
	for _, part := range s.Body {
		if part == p {
			return true
		}
	}
	return false
}

// ContainsFrom reports whether any segment at index >= from occupies p
func (s *Snake) ContainsFrom(p Position, from int) bool {
	if s == nil {
		return false
	}
	for i := from; i < len(s.Body); i++ {
		if s.Body[i] == p {
			return true
		}
	}
	return false
}

// containsExceptTail is the self-collision test: the tail cell is about to be vacated
func (s *Snake) containsExceptTail(p Position) bool {
	for i := 0; i < len(s.Body)-1; i++ {
		if s.Body[i] == p {
			return true
		}
	}
	return false
}

// TransientKind tells bonus food and hazard apart
type TransientKind uint8

const (
	KindBonusFood TransientKind = iota
	KindHazard
)

func (k TransientKind) String() string {
	if k == KindHazard {
		return "hazard"
	}
	return "bonus_food"
}

// TransientEntity is a bonus food or hazard crossing the virtual grid in a straight line
type TransientEntity struct {
	Kind             TransientKind
	Pos              Position
	Direction        Direction
	HasEnteredScreen bool
}

// SpawnTimers are the countdowns and move-frequency counters for both transient kinds
type SpawnTimers struct {
	BonusCountdown    int
	BonusMoveCounter  int
	HazardCountdown   int
	HazardMoveCounter int
}

// ScoreHighlight asks the presentation layer to flash a player's score
type ScoreHighlight struct {
	Player int  `json:"player"`
	Gold   bool `json:"gold"`
}

// SessionState is the complete mutable state of one session.
// It is owned by the Engine and only mutated inside a tick or by Start.
type SessionState struct {
	Mode       Mode
	Snakes     [2]*Snake // Snakes[1] is nil in single mode
	Food       Position
	BonusFood  *TransientEntity
	Hazard     *TransientEntity
	Scores     [2]int
	Timers     SpawnTimers
	Highlights []ScoreHighlight
	Tick       uint64
}

// Snake returns the snake for player 1 or 2, or nil
func (st *SessionState) Snake(player int) *Snake {
	if player < 1 || player > 2 {
		return nil
	}
	return st.Snakes[player-1]
}

// Opponent returns the other player's snake, or nil in single mode
func (st *SessionState) Opponent(player int) *Snake {
	if player == 1 {
		return st.Snakes[1]
	}
	return st.Snakes[0]
}

func (st *SessionState) highlight(player int, gold bool) {
	st.Highlights = append(st.Highlights, ScoreHighlight{Player: player, Gold: gold})
}
