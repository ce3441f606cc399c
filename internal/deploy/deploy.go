// Package deploy uploads the generated site with rsync, driven by the
// deploy configuration file.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

// Deployer runs the rsync transport through the command runner.
type Deployer struct {
	runner *runner.Runner
}

func NewDeployer(r *runner.Runner) *Deployer { return &Deployer{runner: r} }

// Deploy uploads siteDir according to the configuration at configPath.
// Relative paths resolve against the runner's working directory.
func (d *Deployer) Deploy(ctx context.Context, siteDir, configPath string) error {
	logger := d.runner.Logger()
	configPath = d.resolve(configPath)
	siteDir = d.resolve(siteDir)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.SiteDir != "" {
		logger.Warn("The site_dir setting in the deploy config is ignored", logfields.Path(configPath))
	}
	if d.runner.DryRun() {
		logger.Debug("Dry run: skipping site directory check", logfields.Path(siteDir))
	} else if err := checkSource(siteDir); err != nil {
		return err
	}

	args, err := RsyncArgs(cfg, siteDir, d.runner.Verbosity(), d.runner.DryRun())
	if err != nil {
		return err
	}
	logger.Info("Deploying", slog.String("user", cfg.User), logfields.Path(cfg.RemotePath), logfields.DryRun(d.runner.DryRun()))
	return d.runner.Run(ctx, runner.Command{Args: args})
}

func (d *Deployer) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || d.runner.Dir() == "" {
		return p
	}
	return filepath.Join(d.runner.Dir(), p)
}

// checkSource refuses to deploy a missing or empty site directory.
func checkSource(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("the path %s doesn't refer to a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("the source directory %s is empty; build the site before deploying", dir)
	}
	return nil
}

// RsyncArgs builds the rsync argv for cfg.
func RsyncArgs(cfg *Config, siteDir string, verbosity runner.Verbosity, dryRun bool) ([]string, error) {
	args := []string{"rsync"}
	if dryRun {
		args = append(args, "--dry-run")
	}
	switch verbosity {
	case runner.Verbose:
		args = append(args, "--verbose")
	case runner.Quiet:
		args = append(args, "--quiet")
	}
	flags, err := cfg.RsyncFlags()
	if err != nil {
		return nil, err
	}
	args = append(args, flags...)
	if cfg.ExcludeFrom != "" {
		args = append(args, "--exclude-from", cfg.ExcludeFrom)
	}
	for _, e := range cfg.Exclude.Values {
		args = append(args, "--exclude", e)
	}
	if cfg.IncludeFrom != "" {
		args = append(args, "--include-from", cfg.IncludeFrom)
	}
	for _, i := range cfg.Include.Values {
		args = append(args, "--include", i)
	}
	if cfg.User != "" && cfg.Port != "" {
		args = append(args, "--rsh=ssh -p"+cfg.Port.String())
	}
	if cfg.Delete {
		args = append(args, "--delete")
	}

	local := siteDir
	if !strings.HasSuffix(local, string(filepath.Separator)) && !strings.HasSuffix(local, "/") {
		local += string(filepath.Separator)
	}
	remote := cfg.RemotePath
	if cfg.User != "" {
		remote = cfg.User + ":" + cfg.RemotePath
	}
	return append(args, local, remote), nil
}
