package config

import (
	"encoding/json"
	stdErrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// File names looked up in the site's working directory.
const (
	DefaultFileName       = "_build.json"
	SampleFileName        = "_build.sample.json"
	DefaultDeployFileName = "_deploy.json"
)

// BuildConfig is the per-run configuration. It is loaded once and must be
// treated as read-only afterwards.
type BuildConfig struct {
	MinifyOptions     string      `yaml:"minify_options"`
	CleanDirectories  []string    `yaml:"clean_directories"`
	GitRemotes        []string    `yaml:"git_remotes"`
	XamppPath         string      `yaml:"xampp_path"`
	BuildPreCommand   CommandSpec `yaml:"build_pre_command"`
	BuildPostCommand  CommandSpec `yaml:"build_post_command"`
	DeployPreCommand  CommandSpec `yaml:"deploy_pre_command"`
	SiteDir           string      `yaml:"site_dir"`
	ScriptsDir        string      `yaml:"scripts_dir"`
	ScriptInterpreter string      `yaml:"script_interpreter"`
	Generator         []string    `yaml:"generator"`
	MetricsTextfile   string      `yaml:"metrics_textfile,omitempty"`
}

// fileConfig mirrors the on-disk keys. Pointer and nil-slice fields tell an
// absent key apart from an explicit value.
type fileConfig struct {
	MinifyOptions     *string     `json:"minify_options"`
	CleanDirectories  []string    `json:"clean_directories"`
	GitRemotes        []string    `json:"git_remotes"`
	XamppPath         *string     `json:"xampp_path"`
	BuildPreCommand   CommandSpec `json:"build_pre_command"`
	BuildPostCommand  CommandSpec `json:"build_post_command"`
	DeployPreCommand  CommandSpec `json:"deploy_pre_command"`
	SiteDir           *string     `json:"site_dir"`
	ScriptsDir        *string     `json:"scripts_dir"`
	ScriptInterpreter *string     `json:"script_interpreter"`
	Generator         []string    `json:"generator"`
	MetricsTextfile   *string     `json:"metrics_textfile"`
}

var knownKeys = []string{
	"minify_options", "clean_directories", "git_remotes", "xampp_path",
	"build_pre_command", "build_post_command", "deploy_pre_command",
	"site_dir", "scripts_dir", "script_interpreter", "generator", "metrics_textfile",
}

// Default returns the configuration used when every key is omitted.
func Default() *BuildConfig {
	return &BuildConfig{
		CleanDirectories:  []string{"_site", ".jekyll-cache"},
		GitRemotes:        []string{"origin"},
		XamppPath:         defaultXamppPath(runtime.GOOS),
		SiteDir:           "_site",
		ScriptsDir:        "_scripts",
		ScriptInterpreter: "python",
		Generator:         []string{"bundle", "exec", "jekyll"},
	}
}

func defaultXamppPath(goos string) string {
	switch goos {
	case "windows":
		return `C:\xampp`
	case "darwin":
		return "/Applications/XAMPP"
	default:
		return "/opt/lampp"
	}
}

// Load reads the build configuration at path. A missing file or a syntax
// error is reported as a configuration error that tells the user how to fix it.
func Load(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ConfigNotFound(path, SampleFileName)
		}
		return nil, errors.ConfigInvalid(path, err)
	}

	var raw map[string]json.RawMessage
	if err := DecodeJSONC(data, &raw); err != nil {
		return nil, errors.ConfigInvalid(path, err)
	}
	warnUnknownKeys(path, raw)

	var fc fileConfig
	if err := DecodeJSONC(data, &fc); err != nil {
		// Syntax was already accepted above, so this is a value of the wrong shape.
		field, reason := "", err.Error()
		var typeErr *json.UnmarshalTypeError
		if stdErrors.As(err, &typeErr) {
			field, reason = typeErr.Field, "expected "+typeErr.Type.String()+", got "+typeErr.Value
		}
		return nil, errors.ConfigField(path, field, reason)
	}
	return fc.resolve(), nil
}

func warnUnknownKeys(path string, raw map[string]json.RawMessage) {
	var unknown []string
	for k := range raw {
		if !slices.Contains(knownKeys, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return
	}
	sort.Strings(unknown)
	slog.Warn("Ignoring unknown configuration keys", logfields.Path(path), slog.Any("keys", unknown))
}

func (fc *fileConfig) resolve() *BuildConfig {
	cfg := Default()
	if fc.MinifyOptions != nil {
		cfg.MinifyOptions = *fc.MinifyOptions
	}
	if fc.CleanDirectories != nil {
		cfg.CleanDirectories = fc.CleanDirectories
	}
	if len(fc.GitRemotes) > 0 {
		cfg.GitRemotes = fc.GitRemotes
	}
	if fc.XamppPath != nil && *fc.XamppPath != "" {
		cfg.XamppPath = *fc.XamppPath
	}
	cfg.BuildPreCommand = fc.BuildPreCommand
	cfg.BuildPostCommand = fc.BuildPostCommand
	cfg.DeployPreCommand = fc.DeployPreCommand
	if fc.SiteDir != nil && *fc.SiteDir != "" {
		cfg.SiteDir = *fc.SiteDir
	}
	if fc.ScriptsDir != nil && *fc.ScriptsDir != "" {
		cfg.ScriptsDir = *fc.ScriptsDir
	}
	if fc.ScriptInterpreter != nil && *fc.ScriptInterpreter != "" {
		cfg.ScriptInterpreter = *fc.ScriptInterpreter
	}
	if len(fc.Generator) > 0 {
		cfg.Generator = fc.Generator
	}
	if fc.MetricsTextfile != nil {
		cfg.MetricsTextfile = *fc.MetricsTextfile
	}
	return cfg
}

// YAML renders the resolved configuration for trace output.
func (c *BuildConfig) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ValidateDeployConfig fails fast when the deploy configuration is missing or
// not valid JSON-with-comments. Its content is left to the deploy collaborator.
func ValidateDeployConfig(path string) error {
	if err := ValidateJSONCFile(path); err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return errors.New(errors.CategoryConfig, errors.SeverityFatal, "deploy configuration file not found").
				WithContext("path", path).
				WithRemediation("create " + path + " or pass --deploy-config")
		}
		return errors.ConfigInvalid(path, err)
	}
	return nil
}
