package runner

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ErrInterrupted is matched by errors from commands that ended because the
// run was interrupted (SIGINT/SIGTERM).
var ErrInterrupted = stdErrors.New("interrupted")

// ExternalCommandError reports a collaborator that exited nonzero or could not be started.
type ExternalCommandError struct {
	Args     []string
	ExitCode int
	// Signal names the signal that killed the child, if any.
	Signal      string
	Interrupted bool
	Err         error
}

func (e *ExternalCommandError) Error() string {
	if e.Interrupted {
		return fmt.Sprintf("%q interrupted: %v", strings.Join(e.Args, " "), e.Err)
	}
	if e.Signal != "" {
		return fmt.Sprintf("%q terminated by signal %s", strings.Join(e.Args, " "), e.Signal)
	}
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%q exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	}
	return fmt.Sprintf("%q could not be run: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInterrupted) match interrupted commands.
func (e *ExternalCommandError) Is(target error) bool {
	return target == ErrInterrupted && e.Interrupted
}

func exitCodeOf(err error) int {
	var ee *exec.ExitError
	if stdErrors.As(err, &ee) {
		return ee.ExitCode()
	}
	var ce *ExternalCommandError
	if stdErrors.As(err, &ce) {
		return ce.ExitCode
	}
	return -1
}

func signalOf(err error) string {
	var ee *exec.ExitError
	if !stdErrors.As(err, &ee) || ee.ProcessState == nil {
		return ""
	}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ws.Signal().String()
	}
	return ""
}

// Executor starts a prepared command and waits for it.
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// ExecExecutor runs commands with os/exec, wired to the terminal.
type ExecExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// WaitDelay bounds how long a child may linger after being interrupted.
	WaitDelay time.Duration
}

func (e *ExecExecutor) Execute(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if e.Stdin != nil {
		c.Stdin = e.Stdin
	}
	if e.Stdout != nil {
		c.Stdout = e.Stdout
	}
	if e.Stderr != nil {
		c.Stderr = e.Stderr
	}
	// Interrupt rather than kill so serve/watch children can shut down cleanly.
	c.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return c.Process.Kill()
		}
		return c.Process.Signal(os.Interrupt)
	}
	c.WaitDelay = e.WaitDelay
	if c.WaitDelay == 0 {
		c.WaitDelay = 10 * time.Second
	}
	return c.Run()
}

// RecordingExecutor records commands instead of running them. FailWith
// decides the result of each call; a nil FailWith makes every call succeed.
type RecordingExecutor struct {
	mu       sync.Mutex
	Calls    []Command
	FailWith func(cmd Command) error
}

func (r *RecordingExecutor) Execute(_ context.Context, cmd Command) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, cmd)
	r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith(cmd)
	}
	return nil
}

// Argvs returns the recorded argument vectors in call order.
func (r *RecordingExecutor) Argvs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.Args)
	}
	return out
}

// ExitStatus is a convenience error for RecordingExecutor.FailWith.
func ExitStatus(code int) error {
	return &ExternalCommandError{ExitCode: code, Err: fmt.Errorf("exit status %d", code)}
}
