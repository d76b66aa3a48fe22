//go:build !windows

package cmd

import (
	"os"
	"os/exec"
	"syscall"
)

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func terminate(proc *os.Process) error {
	return proc.Signal(syscall.SIGTERM)
}
