//go:build windows

package diskspace

import "golang.org/x/sys/windows"

// Available returns the bytes free to the calling user on the volume
// holding dir. ok is false when the volume cannot be queried.
func Available(dir string) (int64, bool) {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, false
	}
	var freeToCaller, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &freeToCaller, &total, &totalFree); err != nil {
		return 0, false
	}
	return int64(freeToCaller), true
}
