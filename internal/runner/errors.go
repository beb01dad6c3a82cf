package runner

import (
	"errors"
	"fmt"
	"time"
)

// ErrCancelled is returned when a run was stopped on request.
var ErrCancelled = errors.New("calculation cancelled")

// SpawnError means the executable could not be started.
type SpawnError struct {
	Executable string
	Reason     string
	Err        error
}

func (e *SpawnError) Error() string {
	if e.Executable == "" {
		return fmt.Sprintf("cannot start TALYS: %s", e.Reason)
	}
	return fmt.Sprintf("cannot start TALYS (%s): %s", e.Executable, e.Reason)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// TimeoutError means the run exceeded its wall-clock limit and was killed.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("TALYS did not finish within %s and was terminated", e.Timeout)
}

// NonZeroExitError carries the exit code and the tail of stderr.
type NonZeroExitError struct {
	Code   int
	Stderr string
}

func (e *NonZeroExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("TALYS exited with code %d", e.Code)
	}
	return fmt.Sprintf("TALYS exited with code %d: %s", e.Code, e.Stderr)
}
