package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReferencesSample(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	require.Error(t, err)

	be, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryConfig, be.Category)
	assert.Contains(t, be.Remediation, SampleFileName)
}

func TestLoadEmptyObjectUsesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), DefaultFileName, "{}")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []string{"origin"}, cfg.GitRemotes)
	assert.True(t, cfg.BuildPreCommand.IsZero())
	assert.Empty(t, cfg.MinifyOptions)
}

func TestLoadWithComments(t *testing.T) {
	path := writeFile(t, t.TempDir(), DefaultFileName, `
// Site build settings
{
    // passed straight to the minifier
    "minify_options": "-f google -d vendor",
    "clean_directories": ["_site", ".sass-cache"], /* keep the cache list short */
    "git_remotes": ["origin", "backup"],
    "xampp_path": "/srv/xampp",
    "build_pre_command": "npm run assets",
    "build_post_command": ["echo one", "echo two"],
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "-f google -d vendor", cfg.MinifyOptions)
	assert.Equal(t, []string{"_site", ".sass-cache"}, cfg.CleanDirectories)
	assert.Equal(t, []string{"origin", "backup"}, cfg.GitRemotes)
	assert.Equal(t, "/srv/xampp", cfg.XamppPath)
	assert.Equal(t, Single("npm run assets"), cfg.BuildPreCommand)
	assert.Equal(t, Sequence("echo one", "echo two"), cfg.BuildPostCommand)
	assert.Equal(t, CommandSequence, cfg.BuildPostCommand.Kind)
	assert.True(t, cfg.DeployPreCommand.IsZero())
}

func TestLoadExplicitEmptyCleanList(t *testing.T) {
	path := writeFile(t, t.TempDir(), DefaultFileName, `{"clean_directories": []}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg.CleanDirectories)
	assert.Empty(t, cfg.CleanDirectories)
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), DefaultFileName, `{"git_remotes": ["origin" "backup"]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestLoadWrongShapes(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"number command", `{"build_pre_command": 12}`},
		{"object command", `{"deploy_pre_command": {"run": "x"}}`},
		{"mixed command list", `{"build_post_command": ["ok", 3]}`},
		{"string remotes", `{"git_remotes": "origin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), DefaultFileName, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryConfig))
		})
	}
}

func TestCommandSpecNullAndEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), DefaultFileName, `{"build_pre_command": null, "build_post_command": "", "deploy_pre_command": []}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.BuildPreCommand.IsZero())
	assert.True(t, cfg.BuildPostCommand.IsZero())
	assert.True(t, cfg.DeployPreCommand.IsZero())
}

func TestYAMLDumpKeepsVariantShape(t *testing.T) {
	cfg := Default()
	cfg.BuildPreCommand = Single("make assets")
	cfg.BuildPostCommand = Sequence("a", "b")

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "build_pre_command: make assets")
	assert.Contains(t, out, "build_post_command:\n    - a\n    - b")
	assert.Contains(t, out, "git_remotes:\n    - origin")
}

func TestValidateDeployConfig(t *testing.T) {
	dir := t.TempDir()

	err := ValidateDeployConfig(filepath.Join(dir, DefaultDeployFileName))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))

	bad := writeFile(t, dir, "bad.json", `{"method": "rsync",,}`)
	require.Error(t, ValidateDeployConfig(bad))

	good := writeFile(t, dir, DefaultDeployFileName, "// deploy\n{\"method\": \"rsync\", \"remote_path\": \"/var/www\"}\n")
	require.NoError(t, ValidateDeployConfig(good))
}

func TestDefaultXamppPath(t *testing.T) {
	assert.Equal(t, `C:\xampp`, defaultXamppPath("windows"))
	assert.Equal(t, "/Applications/XAMPP", defaultXamppPath("darwin"))
	assert.Equal(t, "/opt/lampp", defaultXamppPath("linux"))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "SITEBUILD_TEST_A=from-env\nSITEBUILD_TEST_B=b\nSITEBUILD_TEST_PARENT=file\n")
	writeFile(t, dir, ".env.local", "SITEBUILD_TEST_A=from-local\nSITEBUILD_TEST_C=c\n")
	t.Setenv("SITEBUILD_TEST_PARENT", "parent")

	env, err := LoadEnv(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"SITEBUILD_TEST_A=from-env",
		"SITEBUILD_TEST_B=b",
		"SITEBUILD_TEST_C=c",
	}, env)
}

func TestLoadEnvNoFiles(t *testing.T) {
	env, err := LoadEnv(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, env)
}
