package core

import (
	"errors"

	"github.com/talysviz/talysrun/internal/runner"
)

// State is a session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateComposing
	StateRunning
	StateParsing
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateComposing:
		return "composing"
	case StateRunning:
		return "running"
	case StateParsing:
		return "parsing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

var (
	// ErrCancelled is the error a cancelled session reports from Wait.
	ErrCancelled = runner.ErrCancelled

	// ErrSessionActive is returned by Start while another session runs.
	ErrSessionActive = errors.New("a calculation is already running on this engine")
)
