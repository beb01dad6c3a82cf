// Package diskspace checks free space on the filesystem holding a directory.
package diskspace

import (
	"errors"
	"fmt"
)

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space in %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// Check returns an *InsufficientSpaceError when the filesystem holding dir
// has less than requiredBytes free for unprivileged users. When free space
// cannot be determined (network or virtual filesystems, unsupported
// platforms) Check returns nil and the caller fails naturally later.
func Check(dir string, requiredBytes int64) error {
	available, ok := Available(dir)
	if !ok {
		return nil
	}
	if available < requiredBytes {
		return &InsufficientSpaceError{
			Path:           dir,
			RequiredBytes:  requiredBytes,
			AvailableBytes: available,
		}
	}
	return nil
}

// IsInsufficientSpaceError reports whether err wraps an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	var e *InsufficientSpaceError
	return errors.As(err, &e)
}
