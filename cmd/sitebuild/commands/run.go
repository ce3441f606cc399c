package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/lock"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/pipeline"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
	"git.home.luguber.info/inful/sitebuild/internal/version"
)

// Env is the process environment a run executes in. Zero values mean the
// real process streams, the default pidfile and real subprocesses.
type Env struct {
	Stdout   io.Writer
	Stderr   io.Writer
	LockPath string
	Executor runner.Executor
}

func (e Env) withDefaults() Env {
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	return e
}

// Execute parses args, runs the selected action and returns the process
// exit code. Every failure is reported once on env.Stderr.
func Execute(ctx context.Context, args []string, env Env) int {
	env = env.withDefaults()
	cli := &CLI{stderr: env.Stderr}

	exitCode := -1
	vars := kongVars()
	vars["version"] = version.String()
	parser, err := kong.New(cli,
		kong.Name("sitebuild"),
		kong.Description("Build, minify, deploy and publish a static site."),
		kong.Writers(env.Stdout, env.Stderr),
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
		vars,
	)
	if err != nil {
		return errors.NewCLIErrorAdapter(false, nil).WithOutput(env.Stderr).
			Report(errors.InternalError("could not build command line parser", err))
	}

	_, err = parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version already printed their output.
		return exitCode
	}
	adapter := errors.NewCLIErrorAdapter(cli.Verbose || cli.Trace, cli.Logger()).WithOutput(env.Stderr)
	if err != nil {
		return adapter.Report(errors.UsageError(err.Error()).WithRemediation("run sitebuild --help for usage"))
	}
	return adapter.Report(cli.Run(ctx, env))
}

// Run resolves the options, loads configuration, takes the process lock and
// runs the orchestrator. The lock is released before Run returns.
func (c *CLI) Run(ctx context.Context, env Env) error {
	env = env.withDefaults()
	logger := c.Logger()

	opts, err := pipeline.Resolve(c.Request())
	if err != nil {
		return err
	}
	workDir, err := resolveWorkDir(opts.WorkDir)
	if err != nil {
		return err
	}
	opts.WorkDir = workDir

	cfgPath := within(workDir, c.Config)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if opts.Trace {
		if dump, derr := cfg.YAML(); derr == nil {
			logger.Debug("Resolved configuration", logfields.Path(cfgPath), slog.String("yaml", dump))
		}
	}
	if opts.DeployIntent() {
		if err := config.ValidateDeployConfig(within(workDir, opts.DeployConfigPath)); err != nil {
			return err
		}
	}
	childEnv, err := config.LoadEnv(workDir)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "could not read .env files").
			WithContext("dir", workDir)
	}

	pid := lock.New(env.LockPath)
	if err := pid.Acquire(); err != nil {
		return err
	}
	defer func() { _ = pid.Release() }()

	r := runner.New(runner.Options{
		Executor:    env.Executor,
		DryRun:      opts.DryRun,
		Verbosity:   opts.Verbosity,
		Dir:         workDir,
		Env:         childEnv,
		Interpreter: cfg.ScriptInterpreter,
		Stdout:      env.Stdout,
		Logger:      logger,
	})
	rc := pipeline.NewRunContext(cfg, opts, r)

	var prom *metrics.PrometheusRecorder
	if cfg.MetricsTextfile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		rc.Recorder = prom
	}

	logger.Info("Starting sitebuild",
		logfields.Action(string(opts.Action)),
		logfields.Dir(workDir),
		logfields.DryRun(opts.DryRun),
		logfields.PID(os.Getpid()))
	res, runErr := pipeline.NewOrchestrator(rc).Run(ctx)

	if prom != nil {
		writeMetrics(rc, prom, res, runErr)
	}
	return runErr
}

func writeMetrics(rc *pipeline.RunContext, prom *metrics.PrometheusRecorder, res *pipeline.Result, runErr error) {
	code := errors.NewCLIErrorAdapter(false, rc.Logger).ExitCodeFor(runErr)
	prom.SetRunOutcome(string(res.Action), string(res.Outcome), code, time.Now())

	path := rc.Path(rc.Config.MetricsTextfile)
	if rc.Options.DryRun {
		rc.Logger.Debug("Dry run: metrics textfile not written", logfields.Path(path))
		return
	}
	if err := prom.WriteTextfile(path); err != nil {
		rc.Logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}

// resolveWorkDir makes dir absolute and checks that it is a directory.
func resolveWorkDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.InvalidWorkDir(dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.InvalidWorkDir(abs, err)
	}
	if !info.IsDir() {
		return "", errors.InvalidWorkDir(abs, fmt.Errorf("not a directory"))
	}
	return abs, nil
}

func within(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
