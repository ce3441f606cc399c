package pipeline

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

// StageName identifies a pipeline stage in logs, metrics and results.
type StageName string

const (
	StagePreCommand       StageName = "pre-command"
	StageClean            StageName = "clean"
	StageIndex            StageName = "index"
	StageGenerate         StageName = "generate"
	StageMinify           StageName = "minify"
	StagePostCommand      StageName = "post-command"
	StageDeployPreCommand StageName = "deploy-pre-command"
	StageDeploy           StageName = "deploy"
	StageGitPush          StageName = "git-push"
	StageLaunchServer     StageName = "launch-server"
)

// Collaborator scripts looked up in the configured scripts directory.
const (
	IndexScript  = "update_index.py"
	MinifyScript = "minify_html_js.py"
)

// runCommandSpec runs each line of spec through the platform shell, stopping
// at the first failure.
func runCommandSpec(ctx context.Context, rc *RunContext, spec config.CommandSpec) error {
	for _, line := range spec.Lines {
		if err := rc.Runner.Run(ctx, runner.Command{Args: rc.Runner.Shell(line)}); err != nil {
			return err
		}
	}
	return nil
}

// cleanDirectories removes the configured directories. Missing directories
// are not an error.
func cleanDirectories(_ context.Context, rc *RunContext) error {
	for _, dir := range rc.Config.CleanDirectories {
		path := rc.Path(dir)
		if err := checkCleanTarget(rc.WorkDir, path); err != nil {
			return err
		}
		if _, err := os.Lstat(path); err != nil {
			if stdErrors.Is(err, fs.ErrNotExist) {
				rc.Logger.Info("Nothing to clean", logfields.Path(path))
				continue
			}
			return err
		}
		if rc.Options.DryRun {
			rc.Logger.Info("Dry run: would remove directory", logfields.Path(path))
			continue
		}
		rc.Logger.Info("Removing directory", logfields.Path(path))
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}

// checkCleanTarget refuses to remove the working directory or one of its parents.
func checkCleanTarget(workDir, path string) error {
	if workDir == "" {
		return nil
	}
	rel, err := filepath.Rel(path, workDir)
	if err != nil {
		return nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return fmt.Errorf("refusing to remove %s: it contains the site directory %s", path, workDir)
}

func indexCommand(rc *RunContext) runner.Command {
	return runner.Command{Args: rc.Runner.Script(rc.ScriptPath(IndexScript))}
}

// generateCommand returns the generator invocation for the resolved options.
func generateCommand(rc *RunContext) runner.Command {
	opts := rc.Options
	args := append([]string(nil), rc.Config.Generator...)
	var env []string

	if opts.Dev {
		if opts.Serve {
			args = append(args, "serve")
			if !opts.Watch {
				args = append(args, "--no-watch")
			}
		} else {
			args = append(args, "build")
			if opts.Watch {
				args = append(args, "--watch")
			}
		}
		if opts.Incremental {
			args = append(args, "--incremental")
		}
	} else {
		args = append(args, "build")
		env = append(env, "JEKYLL_ENV=production")
	}

	if opts.Trace {
		args = append(args, "--trace")
	}
	switch opts.Verbosity {
	case runner.Quiet:
		args = append(args, "--quiet")
	case runner.Verbose:
		args = append(args, "--verbose")
	}
	return runner.Command{Args: args, Env: env}
}

// minifyCommand returns the minifier invocation. minify_options is split
// into words and appended without interpretation.
func minifyCommand(rc *RunContext) (runner.Command, error) {
	args := []string{rc.SiteDir()}
	if rc.Options.MinifyHTML {
		args = append(args, "-H")
	}
	if rc.Options.MinifyJS {
		args = append(args, "-J")
	}
	if rc.Options.DryRun {
		args = append(args, "-n")
	}
	if rc.Config.MinifyOptions != "" {
		words, err := shellwords.Parse(rc.Config.MinifyOptions)
		if err != nil {
			return runner.Command{}, fmt.Errorf("parse minify_options: %w", err)
		}
		args = append(args, words...)
	}
	return runner.Command{Args: rc.Runner.Script(rc.ScriptPath(MinifyScript), args...)}, nil
}

// launchServerCommand starts the local XAMPP stack.
func launchServerCommand(rc *RunContext) runner.Command {
	xampp := rc.Config.XamppPath
	if rc.Runner.GOOS() == "windows" {
		return runner.Command{Args: []string{strings.TrimRight(xampp, `\/`) + `\xampp_start.exe`}}
	}
	return runner.Command{Args: []string{strings.TrimRight(xampp, "/") + "/xampp", "start"}}
}
