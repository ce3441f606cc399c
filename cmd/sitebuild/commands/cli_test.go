package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

type cliEnv struct {
	site   string
	lock   string
	rec    *runner.RecordingExecutor
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newCLIEnv(t *testing.T, buildConfig string) *cliEnv {
	t.Helper()
	e := &cliEnv{
		site:   t.TempDir(),
		lock:   filepath.Join(t.TempDir(), "sitebuild.pid"),
		rec:    &runner.RecordingExecutor{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	if buildConfig != "" {
		e.write(t, "_build.json", buildConfig)
	}
	return e
}

func (e *cliEnv) write(t *testing.T, name, content string) {
	t.Helper()
	p := filepath.Join(e.site, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func (e *cliEnv) execute(args ...string) int {
	args = append([]string{"-C", e.site}, args...)
	return Execute(context.Background(), args, Env{
		Stdout:   e.stdout,
		Stderr:   e.stderr,
		LockPath: e.lock,
		Executor: e.rec,
	})
}

func ranScript(argvs [][]string, name string) bool {
	for _, argv := range argvs {
		if slices.ContainsFunc(argv, func(a string) bool { return filepath.Base(a) == name }) {
			return true
		}
	}
	return false
}

func TestDeployAndDeployOnlyTogetherFailClosed(t *testing.T) {
	e := newCLIEnv(t, `{}`)
	e.write(t, "_deploy.json", `{"method": "rsync", "remote_path": "/srv/www"}`)

	code := e.execute("--deploy", "--deploy-only")
	assert.Equal(t, errors.ExitBuildFailure, code)
	assert.Empty(t, e.rec.Calls)
	assert.Contains(t, e.stderr.String(), "mutually exclusive")
	assert.NoFileExists(t, e.lock)
}

func TestMissingConfigSuggestsSample(t *testing.T) {
	e := newCLIEnv(t, "")

	code := e.execute()
	assert.Equal(t, errors.ExitBuildFailure, code)
	assert.Contains(t, e.stderr.String(), "To fix: copy _build.sample.json to ")
	assert.Empty(t, e.rec.Calls)
}

func TestInvalidWorkDir(t *testing.T) {
	e := newCLIEnv(t, "")

	code := Execute(context.Background(), []string{"-C", filepath.Join(e.site, "missing")}, Env{
		Stdout: e.stdout, Stderr: e.stderr, LockPath: e.lock, Executor: e.rec,
	})
	assert.Equal(t, errors.ExitBuildFailure, code)
	assert.Contains(t, e.stderr.String(), "working directory is not usable")
}

func TestSecondInstanceIsRejected(t *testing.T) {
	e := newCLIEnv(t, `{}`)
	require.NoError(t, os.WriteFile(e.lock, []byte("4242\n"), 0o600))

	code := e.execute()
	assert.Equal(t, errors.ExitBuildFailure, code)
	assert.Empty(t, e.rec.Calls)
	assert.Contains(t, e.stderr.String(), "already running")
	assert.Contains(t, e.stderr.String(), "4242")
	assert.FileExists(t, e.lock)
}

func TestPidfileHeldForTheRunOnly(t *testing.T) {
	e := newCLIEnv(t, `{}`)
	var heldDuringRun bool
	e.rec.FailWith = func(runner.Command) error {
		_, err := os.Stat(e.lock)
		heldDuringRun = err == nil
		return nil
	}

	code := e.execute()
	assert.Equal(t, errors.ExitSuccess, code)
	assert.True(t, heldDuringRun)
	assert.NoFileExists(t, e.lock)
}

func TestPidfileReleasedAfterFailure(t *testing.T) {
	e := newCLIEnv(t, `{}`)
	e.rec.FailWith = func(cmd runner.Command) error {
		if slices.Contains(cmd.Args, "jekyll") {
			return runner.ExitStatus(1)
		}
		return nil
	}

	code := e.execute("--production")
	assert.Equal(t, errors.ExitBuildFailure, code)
	assert.NoFileExists(t, e.lock)
}

func TestDefaultDevBuildSkipsMinify(t *testing.T) {
	e := newCLIEnv(t, `{}`)

	require.Equal(t, errors.ExitSuccess, e.execute())
	assert.False(t, ranScript(e.rec.Argvs(), "minify_html_js.py"))
	assert.True(t, ranScript(e.rec.Argvs(), "update_index.py"))
}

func TestOneShotDevBuildRunsMinify(t *testing.T) {
	e := newCLIEnv(t, `{}`)

	require.Equal(t, errors.ExitSuccess, e.execute("--disable-watch", "--disable-incremental"))
	assert.True(t, ranScript(e.rec.Argvs(), "minify_html_js.py"))
}

func TestActionsAreMutuallyExclusive(t *testing.T) {
	e := newCLIEnv(t, `{}`)

	code := e.execute("--clean", "--production")
	assert.Equal(t, errors.ExitBuildFailure, code)
	assert.Empty(t, e.rec.Calls)
	assert.Contains(t, e.stderr.String(), "sitebuild --help")
}

func TestQuietAndVerboseAreMutuallyExclusive(t *testing.T) {
	e := newCLIEnv(t, `{}`)

	assert.Equal(t, errors.ExitBuildFailure, e.execute("-q", "-v"))
	assert.Empty(t, e.rec.Calls)
}

func TestVersionFlag(t *testing.T) {
	e := newCLIEnv(t, `{}`)

	code := e.execute("--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, e.stdout.String(), "sitebuild ")
	assert.Empty(t, e.rec.Calls)
}

func TestCleanFailureExitCode(t *testing.T) {
	e := newCLIEnv(t, `{"clean_directories": ["."]}`)

	assert.Equal(t, errors.ExitCleanFailure, e.execute("--clean"))
	assert.DirExists(t, e.site)
}

func TestCleanRemovesConfiguredDirectories(t *testing.T) {
	e := newCLIEnv(t, `{
		// generated output only
		"clean_directories": ["_site", ".jekyll-cache"],
	}`)
	e.write(t, "_site/index.html", "<html></html>")

	assert.Equal(t, errors.ExitSuccess, e.execute("--clean"))
	assert.NoDirExists(t, filepath.Join(e.site, "_site"))
	assert.FileExists(t, filepath.Join(e.site, "_build.json"))
}

func TestDeployNeedsDeployConfig(t *testing.T) {
	e := newCLIEnv(t, `{}`)

	code := e.execute("--deploy")
	assert.Equal(t, errors.ExitBuildFailure, code)
	assert.Contains(t, e.stderr.String(), "--deploy-config")
	assert.Empty(t, e.rec.Calls)
}

func TestDeployRunsRsyncAfterProductionBuild(t *testing.T) {
	e := newCLIEnv(t, `{"deploy_pre_command": "./check-links", "clean_directories": []}`)
	e.write(t, "live.json", `{"method": "rsync", "remote_path": "/srv/www", "flags": ["-rlt"]}`)
	e.write(t, "_site/index.html", "<html></html>")

	code := e.execute("--deploy", "--deploy-config", "live.json", "--disable-minify")
	require.Equal(t, errors.ExitSuccess, code, e.stderr.String())

	argvs := e.rec.Argvs()
	require.NotEmpty(t, argvs)
	last := argvs[len(argvs)-1]
	assert.Equal(t, []string{"rsync", "-rlt", filepath.Join(e.site, "_site") + string(filepath.Separator), "/srv/www"}, last)
	for _, c := range e.rec.Calls {
		if slices.Contains(c.Args, "jekyll") {
			assert.Contains(t, c.Env, "JEKYLL_ENV=production")
		}
	}
}

func TestDryRunRunsNothing(t *testing.T) {
	e := newCLIEnv(t, `{"build_pre_command": "touch marker", "metrics_textfile": "sitebuild.prom"}`)
	e.write(t, "_site/index.html", "<html></html>")

	code := e.execute("--production", "--dry-run")
	require.Equal(t, errors.ExitSuccess, code)
	assert.Empty(t, e.rec.Calls)
	assert.FileExists(t, filepath.Join(e.site, "_site", "index.html"))
	assert.NoFileExists(t, filepath.Join(e.site, "sitebuild.prom"))
	assert.Contains(t, e.stdout.String(), "[dry-run] ")
}

func TestGitPushDryRunExecutesNothing(t *testing.T) {
	e := newCLIEnv(t, `{"git_remotes": ["origin"]}`)
	repo, err := git.PlainInit(e.site, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{"https://example.com/site.git"}})
	require.NoError(t, err)

	code := e.execute("--git-push", "--dry-run")
	require.Equal(t, errors.ExitSuccess, code, e.stderr.String())
	assert.Empty(t, e.rec.Calls)
	assert.Contains(t, e.stdout.String(), "[dry-run] git push --dry-run origin")
}

func TestEnvFilesReachCollaborators(t *testing.T) {
	e := newCLIEnv(t, `{}`)
	e.write(t, ".env", "SITEBUILD_TEST_SEARCH_KEY=abc123\n")

	require.Equal(t, errors.ExitSuccess, e.execute("--update-index"))
	require.Len(t, e.rec.Calls, 1)
	assert.Contains(t, e.rec.Calls[0].Env, "SITEBUILD_TEST_SEARCH_KEY=abc123")
	assert.Contains(t, e.rec.Calls[0].Env, runner.VerbosityEnv+"=0")
}

func TestMetricsTextfileWritten(t *testing.T) {
	e := newCLIEnv(t, `{"metrics_textfile": "metrics/sitebuild.prom"}`)
	require.NoError(t, os.MkdirAll(filepath.Join(e.site, "metrics"), 0o750))
	e.rec.FailWith = func(runner.Command) error { return runner.ExitStatus(3) }

	assert.Equal(t, errors.ExitIndexFailure, e.execute("--update-index"))

	data, err := os.ReadFile(filepath.Join(e.site, "metrics", "sitebuild.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `sitebuild_last_run_exit_code{action="update-index"} 9`)
	assert.Contains(t, string(data), `sitebuild_stage_results_total{result="failed",stage="index"} 1`)
}

func TestRequestMapping(t *testing.T) {
	c := &CLI{Dev: true, Deploy: true, Verbose: true, Directory: "site"}
	req := c.Request()
	assert.True(t, req.DevForced)
	assert.Equal(t, runner.Verbose, req.Verbosity)
	assert.Equal(t, "site", req.WorkDir)

	c = &CLI{UpdateIndex: true, Quiet: true}
	req = c.Request()
	assert.Equal(t, "update-index", string(req.Action))
	assert.Equal(t, runner.Quiet, req.Verbosity)
}
