package pipeline

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

// Outcome is the final state of a run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeInterruptedOK ends a serve or watch session the user stopped.
	OutcomeInterruptedOK Outcome = "interrupted"
	// OutcomeInterruptedFailed ends a one-shot run cut short by a signal.
	OutcomeInterruptedFailed Outcome = "interrupted-failed"
)

// StageResult records what happened to one planned stage.
type StageResult struct {
	Name     StageName
	Result   metrics.ResultLabel
	Duration time.Duration
	Err      error
}

// Result summarises a run.
type Result struct {
	Action   Action
	Outcome  Outcome
	Stages   []StageResult
	Duration time.Duration
}

// Ran reports whether the named stage was executed (successfully or not).
func (r *Result) Ran(name StageName) bool {
	for _, s := range r.Stages {
		if s.Name == name && s.Result != metrics.ResultSkipped {
			return true
		}
	}
	return false
}

type stage struct {
	name     StageName
	category errors.ErrorCategory
	run      func(ctx context.Context) error
	// skip, when set, is the reason the stage does not run.
	skip string
	// optional failures are logged and the run continues.
	optional bool
	// longRunning stages end successfully when interrupted.
	longRunning bool
}

// Orchestrator runs the stages of one action in order.
type Orchestrator struct {
	rc *RunContext
}

func NewOrchestrator(rc *RunContext) *Orchestrator {
	if rc.Recorder == nil {
		rc.Recorder = metrics.NoopRecorder{}
	}
	if rc.Logger == nil {
		rc.Logger = rc.Runner.Logger()
	}
	return &Orchestrator{rc: rc}
}

// Run executes the configured action. The returned error is a
// *errors.BuildError whose category selects the exit code; it is nil for
// OutcomeSucceeded and OutcomeInterruptedOK.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{Action: o.rc.Options.Action}
	logger := o.rc.Logger.With(logfields.Action(string(res.Action)))

	stages, err := o.plan(logger)
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, err
	}
	err = o.runStages(ctx, logger, stages, res)

	res.Duration = time.Since(start)
	o.rc.Recorder.ObserveRunDuration(string(res.Action), res.Duration)
	logger.Info("Run finished",
		logfields.Outcome(string(res.Outcome)),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, err
}

func (o *Orchestrator) runStages(ctx context.Context, logger *slog.Logger, stages []stage, res *Result) error {
	rec := o.rc.Recorder
	last := ""
	for _, s := range stages {
		name := string(s.name)
		last = name
		if s.skip != "" {
			logger.Debug("Stage skipped", logfields.Stage(name), slog.String("reason", s.skip))
			rec.IncStageResult(name, metrics.ResultSkipped)
			res.Stages = append(res.Stages, StageResult{Name: s.name, Result: metrics.ResultSkipped})
			continue
		}
		if ctx.Err() != nil {
			res.Outcome = OutcomeInterruptedFailed
			return errors.Interrupted(name, ctx.Err())
		}

		logger.Info("Stage started", logfields.Stage(name))
		t0 := time.Now()
		err := s.run(ctx)
		d := time.Since(t0)
		rec.ObserveStageDuration(name, d)

		sr := StageResult{Name: s.name, Duration: d, Err: err}
		switch {
		case interrupted(ctx, err):
			sr.Result = metrics.ResultInterrupted
		case err == nil:
			sr.Result = metrics.ResultSuccess
			logger.Info("Stage completed", logfields.Stage(name), logfields.DurationMS(float64(d.Milliseconds())))
		default:
			sr.Result = metrics.ResultFailed
		}
		rec.IncStageResult(name, sr.Result)
		res.Stages = append(res.Stages, sr)

		switch sr.Result {
		case metrics.ResultSuccess:
			continue
		case metrics.ResultInterrupted:
			if s.longRunning {
				logger.Info("Stopped by interrupt", logfields.Stage(name))
				res.Outcome = OutcomeInterruptedOK
				return nil
			}
			if err == nil {
				err = ctx.Err()
			}
			res.Outcome = OutcomeInterruptedFailed
			return errors.Interrupted(name, err)
		}
		if s.optional {
			logger.Warn("Stage failed; continuing", logfields.Stage(name), logfields.Error(err))
			continue
		}
		res.Outcome = OutcomeFailed
		return errors.StageFailed(s.category, name, err)
	}
	// A signal after the last executed stage still fails a one-shot run.
	if ctx.Err() != nil {
		res.Outcome = OutcomeInterruptedFailed
		return errors.Interrupted(last, ctx.Err())
	}
	res.Outcome = OutcomeSucceeded
	return nil
}

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || stdErrors.Is(err, runner.ErrInterrupted)
}

// plan returns the stages of the configured action in execution order.
func (o *Orchestrator) plan(logger *slog.Logger) ([]stage, error) {
	rc := o.rc
	switch rc.Options.Action {
	case ActionDev, ActionProduction:
		return o.buildPlan(logger)
	case ActionClean:
		return []stage{{name: StageClean, category: errors.CategoryClean, run: o.clean}}, nil
	case ActionUpdateIndex:
		return []stage{{name: StageIndex, category: errors.CategoryIndex, run: o.index}}, nil
	case ActionGitPush:
		return []stage{{name: StageGitPush, category: errors.CategoryPush, run: rc.Pusher.Push}}, nil
	case ActionLaunchServer:
		return []stage{{name: StageLaunchServer, category: errors.CategoryServer, run: o.launchServer}}, nil
	default:
		return nil, errors.UsageError("unknown action " + string(rc.Options.Action))
	}
}

func (o *Orchestrator) buildPlan(logger *slog.Logger) ([]stage, error) {
	rc := o.rc
	opts := rc.Options
	cfg := rc.Config

	pre := stage{name: StagePreCommand, category: errors.CategoryBuild, run: o.commandSpec(cfg.BuildPreCommand)}
	clean := stage{name: StageClean, category: errors.CategoryClean, run: o.clean}
	index := stage{name: StageIndex, category: errors.CategoryIndex, run: o.index, optional: true}
	generate := stage{name: StageGenerate, category: errors.CategoryBuild, run: o.generate, longRunning: !opts.OneShot()}
	minify := stage{name: StageMinify, category: errors.CategoryBuild, run: o.minify}
	post := stage{name: StagePostCommand, category: errors.CategoryBuild, run: o.commandSpec(cfg.BuildPostCommand)}
	deployPre := stage{name: StageDeployPreCommand, category: errors.CategoryDeploy, run: o.commandSpec(cfg.DeployPreCommand)}
	deploy := stage{name: StageDeploy, category: errors.CategoryDeploy, run: o.deploy}

	switch {
	case opts.SkipPreCommand:
		pre.skip = "--skip-pre-command"
	case cfg.BuildPreCommand.IsZero():
		pre.skip = "build_pre_command not configured"
	}
	if opts.Dev {
		clean.skip = "development build"
	}
	if !opts.OneShot() {
		minify.skip = "generator keeps running"
	} else if !opts.MinifyHTML && !opts.MinifyJS {
		minify.skip = "minification disabled"
	}

	switch {
	case opts.SkipPostCommand:
		post.skip = "--skip-post-command"
	case cfg.BuildPostCommand.IsZero():
		post.skip = "build_post_command not configured"
	case !opts.OneShot():
		post.skip = "generator keeps running"
		logger.Warn("build_post_command will not run because the generator keeps serving or watching; use --disable-watch for a one-shot build")
	}

	switch {
	case !opts.DeployIntent():
		deployPre.skip = "no deploy requested"
		deploy.skip = "no deploy requested"
	case opts.SkipPreCommand:
		deployPre.skip = "--skip-pre-command"
	case cfg.DeployPreCommand.IsZero():
		deployPre.skip = "deploy_pre_command not configured"
	}

	if opts.DeployOnly {
		for _, s := range []*stage{&pre, &clean, &index, &generate, &minify, &post} {
			s.skip = "--deploy-only"
		}
	}
	return []stage{pre, clean, index, generate, minify, post, deployPre, deploy}, nil
}

func (o *Orchestrator) commandSpec(spec config.CommandSpec) func(context.Context) error {
	return func(ctx context.Context) error {
		return runCommandSpec(ctx, o.rc, spec)
	}
}

func (o *Orchestrator) clean(ctx context.Context) error { return cleanDirectories(ctx, o.rc) }

func (o *Orchestrator) index(ctx context.Context) error {
	return o.rc.Runner.Run(ctx, indexCommand(o.rc))
}

func (o *Orchestrator) generate(ctx context.Context) error {
	return o.rc.Runner.Run(ctx, generateCommand(o.rc))
}

func (o *Orchestrator) minify(ctx context.Context) error {
	cmd, err := minifyCommand(o.rc)
	if err != nil {
		return err
	}
	return o.rc.Runner.Run(ctx, cmd)
}

func (o *Orchestrator) deploy(ctx context.Context) error {
	return o.rc.Deployer.Deploy(ctx, o.rc.SiteDir(), o.rc.DeployConfigPath())
}

func (o *Orchestrator) launchServer(ctx context.Context) error {
	return o.rc.Runner.Run(ctx, launchServerCommand(o.rc))
}
