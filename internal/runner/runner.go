// Package runner executes the TALYS binary as a supervised subprocess.
//
// A Runner feeds the composed input on stdin, captures stdout and stderr,
// enforces a wall-clock timeout and honours context cancellation. Stopping
// a run always sends SIGTERM to the whole process group first and SIGKILL
// after a grace window, so nothing the executable spawned outlives it.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/logging"
)

// OutcomeKind classifies a finished run.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	NonZeroExit
	TimedOut
	Cancelled
	SpawnFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case NonZeroExit:
		return "non_zero_exit"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	case SpawnFailed:
		return "spawn_failed"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one Run.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration

	// Reason explains SpawnFailed.
	Reason string

	err error
}

// Err returns nil on Success and the matching typed error otherwise.
func (o Outcome) Err() error {
	return o.err
}

// Request describes one run.
type Request struct {
	// Executable is a name looked up on PATH or a path.
	Executable string

	// Dir is the working directory; outputs land here.
	Dir string

	// Input is written to stdin, which is then closed.
	Input string

	// Timeout bounds the run. Zero means the default (300s).
	Timeout time.Duration

	// Grace is the wait between SIGTERM and SIGKILL. Zero means the default (5s).
	Grace time.Duration

	// Env is appended to the inherited environment.
	Env []string
}

// Runner supervises at most one subprocess at a time.
type Runner struct {
	logger  *logging.Logger
	running atomic.Bool
}

// New creates a runner.
func New(logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Runner{logger: logger}
}

// Busy reports whether a Run is in flight.
func (r *Runner) Busy() bool {
	return r.running.Load()
}

// Run spawns req.Executable and blocks until it exits, the timeout expires
// or ctx is cancelled, whichever is observed first. It never retries.
func (r *Runner) Run(ctx context.Context, req Request) Outcome {
	if !r.running.CompareAndSwap(false, true) {
		return spawnFailed(req.Executable, "runner busy", nil)
	}
	defer r.running.Store(false)

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRunTimeout
	}
	grace := req.Grace
	if grace <= 0 {
		grace = constants.DefaultGracePeriod
	}

	path, err := LookupExecutable(req.Executable)
	if err != nil {
		var serr *SpawnError
		errors.As(err, &serr)
		return Outcome{Kind: SpawnFailed, ExitCode: -1, Reason: serr.Reason, err: err}
	}

	if err := ctx.Err(); err != nil {
		return cancelled(0, "", "")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(path)
	cmd.Dir = req.Dir
	cmd.Stdin = strings.NewReader(req.Input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(req.Env) > 0 {
		cmd.Env = append(cmd.Environ(), req.Env...)
	}
	// Wait must not hang on pipes inherited by orphaned grandchildren
	cmd.WaitDelay = grace
	setProcessGroup(cmd)

	log := r.logger.With().Str("executable", path).Str("dir", req.Dir).Logger()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return spawnFailed(path, err.Error(), err)
	}
	pid := cmd.Process.Pid
	log.Info().Int("pid", pid).Dur("timeout", timeout).Msg("TALYS started")

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		elapsed := time.Since(start)
		// reap anything the executable left behind in its group
		killGroup(pid)
		return classify(cmd, waitErr, stdout.String(), stderr.String(), elapsed)

	case <-timer.C:
		log.Warn().Int("pid", pid).Dur("timeout", timeout).Msg("TALYS timed out, terminating")
		r.terminate(cmd, pid, grace, done)
		return Outcome{
			Kind:     TimedOut,
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Elapsed:  time.Since(start),
			err:      &TimeoutError{Timeout: timeout},
		}

	case <-ctx.Done():
		log.Info().Int("pid", pid).Msg("TALYS run cancelled, terminating")
		r.terminate(cmd, pid, grace, done)
		return cancelled(time.Since(start), stdout.String(), stderr.String())
	}
}

// terminate sends SIGTERM to the process group, waits up to grace for the
// process to exit and then sends SIGKILL. It returns once Wait has returned.
func (r *Runner) terminate(cmd *exec.Cmd, pid int, grace time.Duration, done <-chan error) {
	if err := terminateGroup(cmd.Process, pid); err != nil {
		r.logger.Debug().Err(err).Int("pid", pid).Msg("SIGTERM failed")
	}

	select {
	case <-done:
		killGroup(pid)
		return
	case <-time.After(grace):
	}

	r.logger.Warn().Int("pid", pid).Dur("grace", grace).Msg("TALYS ignored SIGTERM, killing")
	if err := killProcess(cmd.Process, pid); err != nil {
		r.logger.Debug().Err(err).Int("pid", pid).Msg("SIGKILL failed")
	}
	<-done
}

func classify(cmd *exec.Cmd, waitErr error, stdout, stderr string, elapsed time.Duration) Outcome {
	state := cmd.ProcessState
	if state == nil {
		return spawnFailed(cmd.Path, fmt.Sprintf("wait failed: %v", waitErr), waitErr)
	}

	code := state.ExitCode()
	if code == 0 {
		return Outcome{Kind: Success, Stdout: stdout, Stderr: stderr, Elapsed: elapsed}
	}

	return Outcome{
		Kind:     NonZeroExit,
		ExitCode: code,
		Stdout:   stdout,
		Stderr:   stderr,
		Elapsed:  elapsed,
		err:      &NonZeroExitError{Code: code, Stderr: Excerpt(stderr, constants.StderrExcerptLimit)},
	}
}

func spawnFailed(executable, reason string, cause error) Outcome {
	return Outcome{
		Kind:     SpawnFailed,
		ExitCode: -1,
		Reason:   reason,
		err:      &SpawnError{Executable: executable, Reason: reason, Err: cause},
	}
}

func cancelled(elapsed time.Duration, stdout, stderr string) Outcome {
	return Outcome{
		Kind:     Cancelled,
		ExitCode: -1,
		Stdout:   stdout,
		Stderr:   stderr,
		Elapsed:  elapsed,
		err:      ErrCancelled,
	}
}

// LookupExecutable resolves name on PATH, or checks it directly when it
// contains a path separator. Failures are *SpawnError.
func LookupExecutable(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &SpawnError{Reason: "no executable configured"}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		reason := "executable not found"
		if errors.Is(err, exec.ErrDot) {
			reason = "executable resolves to the current directory; use an explicit path"
		} else if !errors.Is(err, exec.ErrNotFound) {
			reason = "executable not runnable"
		}
		return "", &SpawnError{Executable: name, Reason: reason, Err: err}
	}
	return path, nil
}

// Excerpt returns at most limit bytes from the end of s, trimmed.
func Excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
