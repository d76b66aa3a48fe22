package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/msalah0e/mentorgraph/internal/config"
)

// PidFile returns the path to the serve PID file.
func PidFile() string {
	return filepath.Join(config.ConfigDir(), "serve.pid")
}

// IsRunning reports whether the process named in path is alive. A stale
// file is removed.
func IsRunning(path string) (bool, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}
	// On Unix FindProcess always succeeds. Signal 0 checks for liveness.
	if err := proc.Signal(syscall.Signal(0)); err == nil {
		return true, pid
	}
	_ = os.Remove(path)
	return false, 0
}

// WritePid records the current process in path. It refuses when another
// live server already holds the file.
func WritePid(path string) error {
	if ok, pid := IsRunning(path); ok && pid != os.Getpid() {
		return fmt.Errorf("serve already running (pid %d)", pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// RemovePid deletes path if it still names this process.
func RemovePid(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if strings.TrimSpace(string(data)) == strconv.Itoa(os.Getpid()) {
		_ = os.Remove(path)
	}
}
