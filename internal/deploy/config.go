package deploy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mattn/go-shellwords"

	"git.home.luguber.info/inful/sitebuild/internal/config"
)

// MethodRsync is the only supported transport.
const MethodRsync = "rsync"

// defaultFlags mirrors the historical rsync default.
const defaultFlags = "-avz"

// Config is the content of the deploy configuration file.
type Config struct {
	Method      string      `json:"method"`
	User        string      `json:"user"`
	RemotePath  string      `json:"remote_path"`
	Delete      bool        `json:"delete"`
	Port        json.Number `json:"port"`
	Flags       StringList  `json:"flags"`
	Exclude     StringList  `json:"exclude"`
	Include     StringList  `json:"include"`
	ExcludeFrom string      `json:"exclude-from"`
	IncludeFrom string      `json:"include-from"`
	// SiteDir is read only to warn that it is ignored.
	SiteDir string `json:"site_dir"`

	flagsSet bool
}

// StringList accepts either a single string or a list of strings.
type StringList struct {
	Values []string
	// FromString is set when the file held a plain string.
	FromString bool
}

func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = StringList{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = StringList{Values: []string{v}, FromString: true}
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*s = StringList{Values: vs}
	return nil
}

// LoadConfig reads and checks the deploy configuration at path.
func LoadConfig(path string) (*Config, error) {
	var raw map[string]json.RawMessage
	if err := config.ReadJSONC(path, &raw); err != nil {
		return nil, fmt.Errorf("read deploy config %s: %w", path, err)
	}
	var c Config
	if err := config.ReadJSONC(path, &c); err != nil {
		return nil, fmt.Errorf("decode deploy config %s: %w", path, err)
	}
	_, c.flagsSet = raw["flags"]
	if c.Method != MethodRsync {
		return nil, fmt.Errorf("unsupported deploy method %q: set \"method\": %q in %s", c.Method, MethodRsync, path)
	}
	if c.RemotePath == "" {
		return nil, fmt.Errorf("deploy config %s: remote_path is required", path)
	}
	return &c, nil
}

// RsyncFlags returns the extra rsync flags. A string value is split with
// shell quoting rules; a list is used verbatim.
func (c *Config) RsyncFlags() ([]string, error) {
	if !c.flagsSet {
		return []string{defaultFlags}, nil
	}
	if c.Flags.FromString {
		words, err := shellwords.Parse(c.Flags.Values[0])
		if err != nil {
			return nil, fmt.Errorf("parse flags %q: %w", c.Flags.Values[0], err)
		}
		return words, nil
	}
	return c.Flags.Values, nil
}
