package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"
)

// PathMapping is the curated tool-name to invocation-path table. Entries here
// take precedence over the generic kebab-case derivation so legacy and
// irregular paths stay correct.
type PathMapping struct {
	mu    sync.RWMutex
	paths map[string]string
	file  string
}

// NewPathMapping creates an empty mapping.
func NewPathMapping() *PathMapping {
	return &PathMapping{paths: make(map[string]string)}
}

// LoadPathMapping reads a JSON object of {"tool_name": "/path"} entries.
// A missing file yields an empty mapping, not an error.
func LoadPathMapping(file string) (*PathMapping, error) {
	m := NewPathMapping()
	m.file = file

	if file == "" {
		return m, nil
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-reads the mapping file.
func (m *PathMapping) Reload() error {
	if m.file == "" {
		return nil
	}

	data, err := os.ReadFile(m.file)
	if os.IsNotExist(err) {
		m.mu.Lock()
		m.paths = make(map[string]string)
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read path mapping: %w", err)
	}

	paths := make(map[string]string)
	if err := json.Unmarshal(data, &paths); err != nil {
		return fmt.Errorf("failed to parse path mapping: %w", err)
	}

	m.mu.Lock()
	m.paths = paths
	m.mu.Unlock()
	return nil
}

// Set adds or replaces one mapping entry.
func (m *PathMapping) Set(toolName, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[toolName] = path
}

// Lookup returns the curated path for a tool name, if any.
func (m *PathMapping) Lookup(toolName string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.paths[toolName]
	return path, ok
}

// File returns the backing file path, empty when the mapping is in-memory only.
func (m *PathMapping) File() string {
	return m.file
}

// DerivePath builds the generic fallback invocation path from the plugin's
// route prefix and the kebab-cased tool name.
func DerivePath(routePrefix, toolName string) string {
	prefix := strings.TrimSuffix(routePrefix, "/")
	return prefix + "/" + kebabCase(toolName)
}

func kebabCase(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		switch {
		case r == '_' || r == ' ' || r == '-':
			b.WriteByte('-')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = true
		}
	}
	return b.String()
}
