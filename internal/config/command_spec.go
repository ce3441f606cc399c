package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CommandKind tags which shape a configured command took in the file.
type CommandKind int

const (
	// CommandNone means the key was absent, null, or empty.
	CommandNone CommandKind = iota
	// CommandSingle is one shell command line.
	CommandSingle
	// CommandSequence is an ordered list of shell command lines.
	CommandSequence
)

func (k CommandKind) String() string {
	switch k {
	case CommandSingle:
		return "single"
	case CommandSequence:
		return "sequence"
	default:
		return "none"
	}
}

// CommandSpec is the resolved form of build_pre_command, build_post_command
// and deploy_pre_command. The shape is decided once while decoding; callers
// only ever see Kind and Lines.
type CommandSpec struct {
	Kind  CommandKind
	Lines []string
}

// Single returns a CommandSpec holding one command line.
func Single(line string) CommandSpec {
	if line == "" {
		return CommandSpec{}
	}
	return CommandSpec{Kind: CommandSingle, Lines: []string{line}}
}

// Sequence returns a CommandSpec holding several command lines.
func Sequence(lines ...string) CommandSpec {
	if len(lines) == 0 {
		return CommandSpec{}
	}
	return CommandSpec{Kind: CommandSequence, Lines: append([]string(nil), lines...)}
}

// IsZero reports whether there is nothing to run.
func (c CommandSpec) IsZero() bool { return c.Kind == CommandNone || len(c.Lines) == 0 }

// UnmarshalJSON accepts a string, an array of strings, or null.
func (c *CommandSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = CommandSpec{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Single(s)
		return nil
	case '[':
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return fmt.Errorf("command list must contain only strings: %w", err)
		}
		for i, l := range lines {
			if l == "" {
				return fmt.Errorf("command list entry %d is empty", i)
			}
		}
		*c = Sequence(lines...)
		return nil
	default:
		return fmt.Errorf("expected a string or a list of strings, got %s", data)
	}
}

// MarshalYAML renders the variant in its original shape for trace dumps.
func (c CommandSpec) MarshalYAML() (any, error) {
	switch c.Kind {
	case CommandSingle:
		return c.Lines[0], nil
	case CommandSequence:
		return c.Lines, nil
	default:
		return nil, nil
	}
}
