// Package lock implements the advisory single-instance guard: a pidfile in
// the shared temp directory created with an exclusive open.
package lock

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// DefaultName is the pidfile name inside os.TempDir().
const DefaultName = "sitebuild.pid"

// DefaultPath returns the well-known pidfile location.
func DefaultPath() string { return filepath.Join(os.TempDir(), DefaultName) }

// PidLock guards one sitebuild invocation.
type PidLock struct {
	path string
	pid  int

	mu   sync.Mutex
	held bool
}

// New returns an unacquired lock for path (DefaultPath when empty).
func New(path string) *PidLock {
	if path == "" {
		path = DefaultPath()
	}
	return &PidLock{path: path, pid: os.Getpid()}
}

// Path returns the pidfile location.
func (l *PidLock) Path() string { return l.path }

// Acquire creates the pidfile holding the current pid. If the file already
// exists the recorded pid is reported in an AlreadyRunning error.
func (l *PidLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if stdErrors.Is(err, fs.ErrExist) {
			return errors.AlreadyRunning(l.path, readPID(l.path))
		}
		return errors.LockFailed(l.path, err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", l.pid); err != nil {
		_ = f.Close()
		_ = os.Remove(l.path)
		return errors.LockFailed(l.path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(l.path)
		return errors.LockFailed(l.path, err)
	}
	l.held = true
	slog.Debug("Acquired pidfile", logfields.Path(l.path), logfields.PID(l.pid))
	return nil
}

// Release deletes the pidfile if this lock created it. Safe to call more than once.
func (l *PidLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !stdErrors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to remove pidfile", logfields.Path(l.path), logfields.Error(err))
		return err
	}
	slog.Debug("Released pidfile", logfields.Path(l.path))
	return nil
}

func readPID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	s := strings.TrimSpace(string(data))
	if _, err := strconv.Atoi(s); err != nil {
		return "unknown"
	}
	return s
}
