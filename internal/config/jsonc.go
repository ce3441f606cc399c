package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// ReadJSONC reads a JSON-with-comments file and decodes it into v.
// Line and block comments as well as trailing commas are accepted.
func ReadJSONC(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return DecodeJSONC(data, v)
}

// DecodeJSONC standardizes data to plain JSON and decodes it into v.
func DecodeJSONC(data []byte, v any) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("syntax: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(std))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("syntax: unexpected data after the top-level value")
	}
	return nil
}

// ValidateJSONCFile checks that path exists and holds a syntactically valid
// JSON-with-comments object. The content is not interpreted.
func ValidateJSONCFile(path string) error {
	var obj map[string]json.RawMessage
	return ReadJSONC(path, &obj)
}
