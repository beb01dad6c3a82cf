// Package workspace owns the private, disposable directory a single run
// writes its input and outputs into.
package workspace

import (
	"fmt"
	"os"
	"sync"

	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/diskspace"
	"github.com/talysviz/talysrun/internal/logging"
)

// Workspace is a lazily created, uniquely named directory. Callers must
// Release it on every exit path once Acquire has been called.
type Workspace struct {
	baseDir string
	label   string
	logger  *logging.Logger

	// MinFreeBytes is checked on the base filesystem before creating the
	// directory. Zero disables the check.
	MinFreeBytes int64

	mu   sync.Mutex
	path string
}

// New returns an unacquired workspace. baseDir empty means the OS temp dir;
// label (e.g. a session ID) is embedded in the directory name.
func New(baseDir, label string, logger *logging.Logger) *Workspace {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Workspace{
		baseDir:      baseDir,
		label:        label,
		logger:       logger,
		MinFreeBytes: constants.WorkspaceMinFreeBytes,
	}
}

// Acquire creates the directory on first call and returns its path. Later
// calls return the same path. A *diskspace.InsufficientSpaceError is
// returned when the base filesystem is nearly full.
func (w *Workspace) Acquire() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path != "" {
		return w.path, nil
	}

	if w.baseDir != "" {
		if err := os.MkdirAll(w.baseDir, constants.WorkspaceDirPerm); err != nil {
			return "", fmt.Errorf("failed to create workspace base %s: %w", w.baseDir, err)
		}
	}

	base := w.baseDir
	if base == "" {
		base = os.TempDir()
	}
	if w.MinFreeBytes > 0 {
		if err := diskspace.Check(base, w.MinFreeBytes); err != nil {
			return "", err
		}
	}

	pattern := constants.WorkspacePrefix
	if w.label != "" {
		pattern += w.label + "_"
	}
	dir, err := os.MkdirTemp(w.baseDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}

	w.path = dir
	w.logger.Debug().Str("path", dir).Msg("Workspace acquired")
	return dir, nil
}

// Path returns the acquired path, or empty if not acquired.
func (w *Workspace) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Release removes the directory recursively. It never fails: errors are
// logged. Safe to call repeatedly or without Acquire.
func (w *Workspace) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path == "" {
		return
	}
	if err := os.RemoveAll(w.path); err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("Failed to remove workspace")
	} else {
		w.logger.Debug().Str("path", w.path).Msg("Workspace released")
	}
	w.path = ""
}
