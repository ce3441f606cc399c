package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/pipeline"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

// CLI definition. Actions are mutually exclusive; everything else modifies
// the build.
type CLI struct {
	Dev          bool `help:"Build the site for development (default action)." xor:"action"`
	Production   bool `short:"p" help:"Build the site for production." xor:"action"`
	Clean        bool `help:"Remove the configured clean_directories." xor:"action"`
	GitPush      bool `name:"git-push" help:"Push to every configured git remote, in order." xor:"action"`
	LaunchServer bool `name:"launch-server" help:"Start the local XAMPP server." xor:"action"`
	UpdateIndex  bool `name:"update-index" help:"Regenerate the search index." xor:"action"`

	Deploy             bool   `short:"D" help:"Deploy after building (production build unless --dev is given)."`
	DeployOnly         bool   `name:"deploy-only" help:"Deploy the existing site without building it."`
	DisableIncremental bool   `short:"I" name:"disable-incremental" help:"Disable incremental development builds."`
	Serve              bool   `short:"s" help:"Serve the development build locally."`
	DisableWatch       bool   `short:"W" name:"disable-watch" help:"Do not rebuild on change; makes a development build one-shot."`
	DisableMinifyHTML  bool   `name:"disable-minify-html" help:"Do not minify HTML."`
	DisableMinifyJS    bool   `name:"disable-minify-js" help:"Do not minify JavaScript."`
	DisableMinify      bool   `short:"M" name:"disable-minify" help:"Do not minify anything."`
	Directory          string `short:"C" help:"Site directory to work in." default:"."`
	Config             string `short:"c" help:"Build configuration file, relative to the site directory." default:"${config_file}"`
	DeployConfig       string `name:"deploy-config" help:"Deploy configuration file, relative to the site directory." default:"${deploy_config_file}"`
	Trace              bool   `short:"t" help:"Show full traces from the generator and dump the resolved configuration."`
	SkipPreCommand     bool   `name:"skip-pre-command" help:"Skip build_pre_command and deploy_pre_command."`
	SkipPostCommand    bool   `name:"skip-post-command" help:"Skip build_post_command."`
	DryRun             bool   `short:"n" name:"dry-run" help:"Print what would run without running or removing anything."`
	Quiet              bool   `short:"q" help:"Only report warnings and errors." xor:"verbosity"`
	Verbose            bool   `short:"v" help:"Enable verbose output." xor:"verbosity"`

	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	stderr io.Writer    `kong:"-"`
	logger *slog.Logger `kong:"-"`
	runID  string       `kong:"-"`
}

func kongVars() kong.Vars {
	return kong.Vars{
		"config_file":        config.DefaultFileName,
		"deploy_config_file": config.DefaultDeployFileName,
	}
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	switch {
	case c.Quiet:
		level = slog.LevelWarn
	case c.Verbose || c.Trace:
		level = slog.LevelDebug
	}
	out := c.stderr
	if out == nil {
		out = os.Stderr
	}
	c.runID = uuid.NewString()
	c.logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})).
		With(logfields.RunID(c.runID))
	slog.SetDefault(c.logger)
	return nil
}

// Logger returns the run logger (slog.Default before flags were applied).
func (c *CLI) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c *CLI) verbosity() runner.Verbosity {
	switch {
	case c.Quiet:
		return runner.Quiet
	case c.Verbose:
		return runner.Verbose
	default:
		return runner.Normal
	}
}

func (c *CLI) action() pipeline.Action {
	switch {
	case c.Production:
		return pipeline.ActionProduction
	case c.Clean:
		return pipeline.ActionClean
	case c.GitPush:
		return pipeline.ActionGitPush
	case c.LaunchServer:
		return pipeline.ActionLaunchServer
	case c.UpdateIndex:
		return pipeline.ActionUpdateIndex
	default:
		return pipeline.ActionDev
	}
}

// Request converts the parsed flags into pipeline intent.
func (c *CLI) Request() pipeline.Request {
	return pipeline.Request{
		Action:             c.action(),
		DevForced:          c.Dev,
		Deploy:             c.Deploy,
		DeployOnly:         c.DeployOnly,
		DisableIncremental: c.DisableIncremental,
		Serve:              c.Serve,
		DisableWatch:       c.DisableWatch,
		DisableMinifyHTML:  c.DisableMinifyHTML,
		DisableMinifyJS:    c.DisableMinifyJS,
		DisableMinify:      c.DisableMinify,
		DryRun:             c.DryRun,
		Trace:              c.Trace,
		Verbosity:          c.verbosity(),
		SkipPreCommand:     c.SkipPreCommand,
		SkipPostCommand:    c.SkipPostCommand,
		WorkDir:            c.Directory,
		DeployConfigPath:   c.DeployConfig,
	}
}
