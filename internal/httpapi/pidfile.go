package httpapi

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
)

// claimPIDFile writes the current process's PID to path, first
// removing any stale PID file left by a process that is no longer
// alive, per the daemon's PID-file lifecycle: created on start,
// deleted on graceful shutdown, stale files cleaned up by the next
// start.
func claimPIDFile(path string) error {
	if path == "" {
		return nil
	}
	if existing, ok := readPIDFile(path); ok {
		if processAlive(existing) {
			return superr.Newf(superr.InternalError, "webhook daemon already running (pid %d, pidfile %s)", existing, path)
		}
		logging.Get(logging.CategoryHTTP).Warn("removing stale pid file %s (pid %d not alive)", path, existing)
		os.Remove(path)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// removePIDFile deletes path if it still names this process.
func removePIDFile(path string) {
	if path == "" {
		return
	}
	if existing, ok := readPIDFile(path); ok && existing == os.Getpid() {
		os.Remove(path)
	}
}

func readPIDFile(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// processAlive reports whether pid names a live process, using the
// signal-0 probe: sending signal 0 performs existence/permission
// checks without actually delivering a signal.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
