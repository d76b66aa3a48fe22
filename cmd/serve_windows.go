//go:build windows

package cmd

import (
	"os"
	"os/exec"
)

func detach(cmd *exec.Cmd) {
	// The child already outlives the parent on Windows.
}

func terminate(proc *os.Process) error {
	return proc.Kill() // no SIGTERM delivery on Windows
}
