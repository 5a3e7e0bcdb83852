package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names the syntax a decoder reads.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatXML  Format = "xml"
	FormatText Format = "text"
)

// Error is a typed decode failure.
type Error struct {
	Format Format // Syntax that failed to decode
	Path   string // Source file, empty for in-memory input
	Err    error  // Underlying parser error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decode %s %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Func is the signature shared by [JSON], [YAML] and [TOML].
type Func func(data []byte, v any) error

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a leading UTF-8 byte-order mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, byteOrderMark)
}

func blank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

// JSON decodes data into v.
func JSON(data []byte, v any) error {
	data = StripBOM(data)
	if blank(data) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Format: FormatJSON, Err: err}
	}
	return nil
}

// YAML decodes data into v.
func YAML(data []byte, v any) error {
	data = StripBOM(data)
	if blank(data) {
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return &Error{Format: FormatYAML, Err: err}
	}
	return nil
}

// TOML decodes data into v.
func TOML(data []byte, v any) error {
	data = StripBOM(data)
	if blank(data) {
		return nil
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return &Error{Format: FormatTOML, Err: err}
	}
	return nil
}

// Lines splits text into lines without their terminators. A final
// terminator does not produce a trailing empty line.
func Lines(data []byte) []string {
	data = StripBOM(data)
	if len(data) == 0 {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ReadFile reads path and decodes it with fn. Filesystem errors are returned
// unchanged so callers can test them with os.IsNotExist.
func ReadFile(path string, fn Func, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := fn(data, v); err != nil {
		if de, ok := err.(*Error); ok {
			de.Path = path
		}
		return err
	}
	return nil
}

// ReadLines reads path and returns its lines.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Lines(data), nil
}
