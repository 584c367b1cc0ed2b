package provision

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	oerrors "github.com/threatflux/libgo/internal/errors"
)

// ProcessLock is the process-wide exclusive lock described in §4.5.3: a
// directory, atomically created, holding a pid file. A stale lock (owner
// process no longer alive) is recovered once.
type ProcessLock struct {
	dir string
}

// AcquireProcessLock tries each candidate directory in order (the first
// writable one wins), atomic-creating "<candidate>/<script>.lock" and
// writing the current PID into a pid file inside it. If the directory
// already exists, it reads the PID and tests liveness; if the owner is
// not alive, it removes the stale directory and retries once. A lock held
// by a live process ends the search with ErrAnotherInstanceRunning; later
// candidates are not tried.
func AcquireProcessLock(candidates []string, script string) (*ProcessLock, error) {
	var lastErr error
	for _, candidate := range candidates {
		dir := filepath.Join(expandCandidate(candidate), script+".lock")
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			lastErr = err
			continue
		}

		lock, err := tryAcquire(dir)
		if err == nil {
			return lock, nil
		}
		if oerrors.Is(err, oerrors.ErrAnotherInstanceRunning) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = oerrors.ErrAnotherInstanceRunning
	}
	return nil, lastErr
}

func tryAcquire(dir string) (*ProcessLock, error) {
	if err := os.Mkdir(dir, 0o755); err == nil {
		if writeErr := writePID(dir); writeErr != nil {
			os.RemoveAll(dir)
			return nil, writeErr
		}
		return &ProcessLock{dir: dir}, nil
	} else if !os.IsExist(err) {
		return nil, err
	}

	pid, readErr := readPID(dir)
	if readErr == nil && processAlive(pid) {
		return nil, oerrors.ErrAnotherInstanceRunning
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, oerrors.Wrap(oerrors.ErrLockStale, "removing stale lock %s", dir)
	}

	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, oerrors.Wrap(oerrors.ErrAnotherInstanceRunning, "lock %s recreated concurrently", dir)
	}
	if err := writePID(dir); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &ProcessLock{dir: dir}, nil
}

func writePID(dir string) error {
	return os.WriteFile(filepath.Join(dir, "pid"), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPID(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, "pid"))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Release removes the lock directory. Safe to call on every exit path,
// including after a signal.
func (l *ProcessLock) Release() error {
	if l == nil {
		return nil
	}
	return os.RemoveAll(l.dir)
}

func expandCandidate(candidate string) string {
	return os.ExpandEnv(candidate)
}
