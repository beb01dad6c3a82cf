//go:build linux || darwin || freebsd

package diskspace

import "golang.org/x/sys/unix"

// Available returns the bytes free to unprivileged users on the filesystem
// holding dir. ok is false when the filesystem cannot be queried.
func Available(dir string) (int64, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, false
	}
	return int64(stat.Bavail) * int64(stat.Bsize), true
}
