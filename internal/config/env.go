package config

import (
	stdErrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// envFiles are read from the site directory in order; earlier files win.
var envFiles = []string{".env", ".env.local"}

// LoadEnv reads .env style files from dir and returns their entries as
// KEY=VALUE pairs. Variables already present in the parent environment are
// never overridden. The process environment itself is left untouched; the
// result is meant to be appended to child process environments.
func LoadEnv(dir string) ([]string, error) {
	merged := map[string]string{}
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		vals, err := godotenv.Read(path)
		if err != nil {
			if stdErrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		slog.Debug("Loaded environment file", logfields.Path(path), slog.Int("variables", len(vals)))
		for k, v := range vals {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		if _, inParent := os.LookupEnv(k); inParent {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env, nil
}
