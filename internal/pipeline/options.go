package pipeline

import (
	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

// Action is the top-level thing a sitebuild invocation does.
type Action string

const (
	ActionDev          Action = "dev"
	ActionProduction   Action = "production"
	ActionClean        Action = "clean"
	ActionGitPush      Action = "git-push"
	ActionLaunchServer Action = "launch-server"
	ActionUpdateIndex  Action = "update-index"
)

// IsBuild reports whether the action runs the build pipeline.
func (a Action) IsBuild() bool { return a == ActionDev || a == ActionProduction }

// Request is the raw intent collected from the command line, before the
// rules that tie the modifiers together are applied.
type Request struct {
	Action Action
	// DevForced is set when --dev was given explicitly.
	DevForced bool

	Deploy     bool
	DeployOnly bool

	DisableIncremental bool
	Serve              bool
	DisableWatch       bool
	DisableMinifyHTML  bool
	DisableMinifyJS    bool
	DisableMinify      bool

	DryRun          bool
	Trace           bool
	Verbosity       runner.Verbosity
	SkipPreCommand  bool
	SkipPostCommand bool

	WorkDir          string
	DeployConfigPath string
}

// RunOptions is the resolved, immutable behaviour of one run.
type RunOptions struct {
	Action      Action
	Dev         bool
	Incremental bool
	Watch       bool
	Serve       bool
	MinifyHTML  bool
	MinifyJS    bool

	DryRun    bool
	Trace     bool
	Verbosity runner.Verbosity

	Deploy          bool
	DeployOnly      bool
	SkipPreCommand  bool
	SkipPostCommand bool

	WorkDir          string
	DeployConfigPath string
}

// DeployIntent reports whether the run ends with a deploy.
func (o RunOptions) DeployIntent() bool { return o.Deploy || o.DeployOnly }

// OneShot reports whether the generator exits on its own once the site is built.
func (o RunOptions) OneShot() bool { return !o.Serve && !o.Watch }

// Resolve applies the modifier rules to req.
//
// A deploy builds for production unless --dev is given; a forced development
// deploy inverts the incremental preference so that a one-off deploy build
// does not silently resume a previous incremental build. Deploys never serve
// or watch.
func Resolve(req Request) (RunOptions, error) {
	if req.Deploy && req.DeployOnly {
		return RunOptions{}, errors.UsageError("--deploy and --deploy-only are mutually exclusive").
			WithRemediation("use --deploy to build and deploy, or --deploy-only to deploy the existing site")
	}
	action := req.Action
	if action == "" {
		action = ActionDev
	}
	deploy := req.Deploy || req.DeployOnly
	if deploy && !action.IsBuild() {
		return RunOptions{}, errors.UsageError("--deploy and --deploy-only cannot be combined with --" + string(action))
	}

	opts := RunOptions{
		Action:           action,
		Incremental:      !req.DisableIncremental,
		Watch:            !req.DisableWatch,
		Serve:            req.Serve,
		MinifyHTML:       !req.DisableMinify && !req.DisableMinifyHTML,
		MinifyJS:         !req.DisableMinify && !req.DisableMinifyJS,
		DryRun:           req.DryRun,
		Trace:            req.Trace,
		Verbosity:        req.Verbosity,
		Deploy:           req.Deploy,
		DeployOnly:       req.DeployOnly,
		SkipPreCommand:   req.SkipPreCommand,
		SkipPostCommand:  req.SkipPostCommand,
		WorkDir:          req.WorkDir,
		DeployConfigPath: req.DeployConfigPath,
	}

	switch {
	case deploy && req.DevForced:
		opts.Action = ActionDev
		opts.Incremental = !opts.Incremental
	case deploy:
		opts.Action = ActionProduction
	}
	opts.Dev = opts.Action == ActionDev

	if deploy || !opts.Dev {
		opts.Watch = false
		opts.Serve = false
	}
	if !opts.Dev {
		opts.Incremental = false
	}
	return opts, nil
}
