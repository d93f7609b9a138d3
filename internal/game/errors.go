package game

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRunning is returned for input or control calls outside a running session
	ErrNotRunning = errors.New("game: session not running")
	// ErrInvalidPlayer is returned for a player slot the current mode does not control by input
	ErrInvalidPlayer = errors.New("game: invalid player")
	// ErrInvalidDirection is returned when a direction name cannot be parsed
	ErrInvalidDirection = errors.New("game: invalid direction")
	// ErrUnknownMode is returned when a mode name cannot be parsed
	ErrUnknownMode = errors.New("game: unknown mode")
)

// InvariantError reports an internal-consistency failure detected during a tick.
// It indicates a logic defect; the tick that raised it is aborted.
type InvariantError struct {
	Tick   uint64
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("game: invariant violated at tick %d: %s", e.Tick, e.Detail)
}

func invariantf(tick uint64, format string, args ...interface{}) {
	panic(&InvariantError{Tick: tick, Detail: fmt.Sprintf(format, args...)})
}
