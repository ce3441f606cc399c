package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/deploy"
	"git.home.luguber.info/inful/sitebuild/internal/git"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

// Deployer uploads the generated site.
type Deployer interface {
	Deploy(ctx context.Context, siteDir, configPath string) error
}

// Pusher pushes the working tree's branch to the configured remotes.
type Pusher interface {
	Push(ctx context.Context) error
}

// RunContext carries everything one run needs. Components read the working
// directory from here; the process working directory is never changed.
type RunContext struct {
	WorkDir  string
	Config   *config.BuildConfig
	Options  RunOptions
	Runner   *runner.Runner
	Logger   *slog.Logger
	Recorder metrics.Recorder

	Deployer Deployer
	Pusher   Pusher
}

// NewRunContext wires the default collaborators around r.
func NewRunContext(cfg *config.BuildConfig, opts RunOptions, r *runner.Runner) *RunContext {
	return &RunContext{
		WorkDir:  opts.WorkDir,
		Config:   cfg,
		Options:  opts,
		Runner:   r,
		Logger:   r.Logger(),
		Recorder: metrics.NoopRecorder{},
		Deployer: deploy.NewDeployer(r),
		Pusher:   git.NewPusher(r, cfg.GitRemotes),
	}
}

// Path resolves p against the working directory.
func (rc *RunContext) Path(p string) string {
	if filepath.IsAbs(p) || rc.WorkDir == "" {
		return p
	}
	return filepath.Join(rc.WorkDir, p)
}

// SiteDir is the absolute generator output directory.
func (rc *RunContext) SiteDir() string { return rc.Path(rc.Config.SiteDir) }

// ScriptPath is the absolute path of a collaborator script.
func (rc *RunContext) ScriptPath(name string) string {
	return rc.Path(filepath.Join(rc.Config.ScriptsDir, name))
}

// DeployConfigPath is the absolute deploy configuration path.
func (rc *RunContext) DeployConfigPath() string {
	p := rc.Options.DeployConfigPath
	if p == "" {
		p = config.DefaultDeployFileName
	}
	return rc.Path(p)
}
