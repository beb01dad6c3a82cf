//go:build unix

package runner

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the child in its own process group so signals reach
// everything it spawns.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateGroup(_ *os.Process, pid int) error {
	return unix.Kill(-pid, unix.SIGTERM)
}

func killProcess(_ *os.Process, pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}

// killGroup sends SIGKILL to the group; ESRCH (already gone) is expected.
func killGroup(pid int) {
	_ = unix.Kill(-pid, unix.SIGKILL)
}
