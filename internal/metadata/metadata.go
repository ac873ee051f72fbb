// Package metadata loads the per-document key/value mapping that is
// attached to every exported chunk row.
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotObject is returned when the top-level JSON value is not an object.
var ErrNotObject = errors.New("metadata must be a JSON object")

// Metadata is an ordered string mapping. Keys keep their first position in
// the source document; a repeated key keeps the last value.
type Metadata struct {
	keys   []string
	values map[string]string
}

// New returns an empty mapping.
func New() *Metadata {
	return &Metadata{values: make(map[string]string)}
}

// Set adds or replaces key.
func (m *Metadata) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m *Metadata) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in document order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Load reads a metadata file. An empty path yields an empty mapping.
func Load(path string) (*Metadata, error) {
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a JSON object from r. Null values become empty strings,
// strings are kept verbatim, numbers keep their literal form and nested
// arrays or objects are re-encoded as compact JSON.
func Parse(r io.Reader) (*Metadata, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotObject
		}
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	m := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		key := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode metadata %q: %w", key, err)
		}
		value, err := stringify(raw)
		if err != nil {
			return nil, fmt.Errorf("decode metadata %q: %w", key, err)
		}
		m.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode metadata: trailing data after object")
	}
	return m, nil
}

func stringify(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case bytes.Equal(trimmed, []byte("true")):
		return "True", nil
	case bytes.Equal(trimmed, []byte("false")):
		return "False", nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return strings.TrimSpace(string(trimmed)), nil
}
