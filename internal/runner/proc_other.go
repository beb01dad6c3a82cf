//go:build !unix

package runner

import (
	"os"
	"os/exec"
)

func setProcessGroup(_ *exec.Cmd) {}

func terminateGroup(p *os.Process, _ int) error {
	if err := p.Signal(os.Interrupt); err != nil {
		// no interrupt delivery on this platform
		return p.Kill()
	}
	return nil
}

func killProcess(p *os.Process, _ int) error {
	return p.Kill()
}

func killGroup(_ int) {}
