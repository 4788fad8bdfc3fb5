//go:build !unix

package shell

import (
	"os"
	"os/exec"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd) {}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func Signal(state *os.ProcessState) (syscall.Signal, bool) {
	return 0, false
}

func MaxRSS(state *os.ProcessState) uint64 {
	return 0
}
