// Package runner is the single place sitebuild starts external programs.
//
// Every collaborator (generator, minifier, indexer, deploy transport, git,
// user-configured shell commands) goes through Runner.Run, which either
// executes the argv synchronously or, in dry-run mode, only describes it.
// Output is never captured: children inherit the terminal and read the
// requested verbosity from JEKYLL_BUILD_VERBOSITY.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// VerbosityEnv carries the requested verbosity to collaborators.
const VerbosityEnv = "JEKYLL_BUILD_VERBOSITY"

// Verbosity is the user-selected output level, encoded the way collaborators expect it.
type Verbosity int

const (
	Quiet   Verbosity = -1
	Normal  Verbosity = 0
	Verbose Verbosity = 1
)

func (v Verbosity) String() string {
	switch v {
	case Quiet:
		return "quiet"
	case Verbose:
		return "verbose"
	default:
		return "normal"
	}
}

// Command describes one external invocation.
type Command struct {
	Args []string
	// Dir overrides the runner's working directory when set.
	Dir string
	// Env is appended to the runner's base environment.
	Env []string
}

func (c Command) String() string { return strings.Join(c.Args, " ") }

// Options configures a Runner.
type Options struct {
	Executor    Executor
	DryRun      bool
	Verbosity   Verbosity
	Dir         string
	Env         []string
	Interpreter string
	// GOOS defaults to runtime.GOOS.
	GOOS   string
	Stdout io.Writer
	Logger *slog.Logger
}

// Runner executes or describes commands for one sitebuild invocation.
type Runner struct {
	exec        Executor
	dryRun      bool
	verbosity   Verbosity
	dir         string
	env         []string
	interpreter string
	goos        string
	stdout      io.Writer
	logger      *slog.Logger
}

// New builds a Runner from opts, filling in process defaults.
func New(opts Options) *Runner {
	r := &Runner{
		exec:        opts.Executor,
		dryRun:      opts.DryRun,
		verbosity:   opts.Verbosity,
		dir:         opts.Dir,
		env:         append([]string(nil), opts.Env...),
		interpreter: opts.Interpreter,
		goos:        opts.GOOS,
		stdout:      opts.Stdout,
		logger:      opts.Logger,
	}
	if r.exec == nil {
		r.exec = &ExecExecutor{}
	}
	if r.goos == "" {
		r.goos = runtime.GOOS
	}
	if r.interpreter == "" {
		r.interpreter = "python"
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

func (r *Runner) DryRun() bool         { return r.dryRun }
func (r *Runner) Verbosity() Verbosity { return r.verbosity }
func (r *Runner) Dir() string          { return r.dir }
func (r *Runner) Logger() *slog.Logger { return r.logger }
func (r *Runner) GOOS() string         { return r.goos }

// Run executes cmd and blocks until it exits. In dry-run mode the command
// is printed and nothing is executed.
func (r *Runner) Run(ctx context.Context, cmd Command) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("runner: empty command")
	}
	if cmd.Dir == "" {
		cmd.Dir = r.dir
	}
	if r.dryRun {
		_, _ = fmt.Fprintf(r.stdout, "[dry-run] %s\n", cmd)
		r.logger.Debug("Dry run: command not executed", logfields.Command(cmd.Args), logfields.Dir(cmd.Dir))
		return nil
	}

	cmd.Env = r.environ(cmd.Env)
	r.logger.Debug("Running command", logfields.Command(cmd.Args), logfields.Dir(cmd.Dir))

	err := r.exec.Execute(ctx, cmd)
	if err == nil {
		return nil
	}
	ce := &ExternalCommandError{Args: cmd.Args, ExitCode: exitCodeOf(err), Signal: signalOf(err), Err: err}
	if ctx.Err() != nil {
		ce.Interrupted = true
	}
	r.logger.Debug("Command failed", logfields.Command(cmd.Args), logfields.ExitCode(ce.ExitCode), logfields.Error(err))
	return ce
}

// environ assembles the child environment: parent, runner base, verbosity, per-command.
func (r *Runner) environ(extra []string) []string {
	env := os.Environ()
	env = append(env, r.env...)
	env = append(env, VerbosityEnv+"="+strconv.Itoa(int(r.verbosity)))
	return append(env, extra...)
}

// Script returns the argv for a collaborator script. Platforms that cannot
// execute scripts directly get the configured interpreter prepended.
func (r *Runner) Script(path string, args ...string) []string {
	var argv []string
	if r.goos == "windows" {
		argv = append(argv, r.interpreter)
	}
	argv = append(argv, path)
	return append(argv, args...)
}

// Shell returns the argv that runs line through the platform shell.
func (r *Runner) Shell(line string) []string {
	if r.goos == "windows" {
		return []string{"cmd", "/C", line}
	}
	return []string{"sh", "-c", line}
}
