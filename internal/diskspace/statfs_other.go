//go:build !(linux || darwin || freebsd || windows)

package diskspace

// Available always reports unknown on this platform.
func Available(dir string) (int64, bool) {
	return 0, false
}
