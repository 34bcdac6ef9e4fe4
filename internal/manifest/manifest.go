// Package manifest holds the per-module record of deployed files, routing
// rules and dependencies, stored next to the module content as resolve.json.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Filename is the reserved storage name of a module manifest.
const Filename = "resolve.json"

var ErrMalformed = errors.New("malformed manifest")

// Manifest is the sole record of what a module believes is deployed.
type Manifest struct {
	// Files maps a module-relative path to the hex sha256 of its content.
	Files map[string]string `json:"files"`
	// Rules are routing rules owned by the serving function; they are passed
	// through untouched.
	Rules []json.RawMessage `json:"rules"`
	// Dependencies maps a dependency name to its version.
	Dependencies map[string]string `json:"dependencies"`
}

// Empty is the baseline used when a module has never been pushed.
func Empty() *Manifest {
	return &Manifest{
		Files:        map[string]string{},
		Rules:        []json.RawMessage{},
		Dependencies: map[string]string{},
	}
}

// New builds a manifest for the given file contents. Manifest keys are
// never recorded as files.
func New(files map[string][]byte, rules []json.RawMessage, dependencies map[string]string) *Manifest {
	m := Empty()
	for name, content := range files {
		if !IsKey(name) {
			m.Files[name] = Hash(content)
		}
	}
	if rules != nil {
		m.Rules = rules
	}
	for name, version := range dependencies {
		m.Dependencies[name] = version
	}
	return m
}

// Hash returns the hex encoded sha256 digest of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Parse decodes a stored manifest. Content that is not an object, or whose
// files entry is missing or not a string map, is reported as ErrMalformed.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	filesRaw, ok := raw["files"]
	if !ok || !isObject(filesRaw) {
		return nil, fmt.Errorf("%w: files must be an object", ErrMalformed)
	}

	m := Empty()
	if err := json.Unmarshal(filesRaw, &m.Files); err != nil {
		return nil, fmt.Errorf("%w: files: %w", ErrMalformed, err)
	}
	if rules, ok := raw["rules"]; ok && isArray(rules) {
		if err := json.Unmarshal(rules, &m.Rules); err != nil {
			return nil, fmt.Errorf("%w: rules: %w", ErrMalformed, err)
		}
	}
	// a manifest without a usable dependency map simply declares none
	if deps, ok := raw["dependencies"]; ok && isObject(deps) {
		if err := json.Unmarshal(deps, &m.Dependencies); err != nil {
			return nil, fmt.Errorf("%w: dependencies: %w", ErrMalformed, err)
		}
	}
	delete(m.Files, Filename)
	return m, nil
}

// Marshal encodes the manifest the way it is stored remotely.
func (m *Manifest) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not encode manifest: %w", err)
	}
	return b, nil
}

// Key returns the storage key of the manifest for a module path. The module
// path is either empty or ends with a slash.
func Key(modulePath string) string {
	return modulePath + Filename
}

// IsKey reports whether key names a manifest object.
func IsKey(key string) bool {
	return path.Base(key) == Filename && !strings.HasSuffix(key, "/")
}

// ModulePath strips the manifest filename from a manifest key.
func ModulePath(key string) (string, bool) {
	if key == Filename {
		return "", true
	}
	if !strings.HasSuffix(key, "/"+Filename) {
		return "", false
	}
	return strings.TrimSuffix(key, Filename), true
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// ParseDependencies reads only the dependency map of a stored manifest. A
// manifest without a usable dependency map declares none.
func ParseDependencies(data []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	out := map[string]string{}
	if deps, ok := raw["dependencies"]; ok && isObject(deps) {
		if err := json.Unmarshal(deps, &out); err != nil {
			return nil, fmt.Errorf("%w: dependencies: %w", ErrMalformed, err)
		}
	}
	return out, nil
}
