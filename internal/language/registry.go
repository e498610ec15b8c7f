package language

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedLanguage is returned by Resolve for keys absent from the registry.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Entry maps a user-facing language key to the tokens each backend expects.
type Entry struct {
	Key            string `yaml:"key" json:"key"`
	Name           string `yaml:"name" json:"name"`
	PistonLanguage string `yaml:"piston_language" json:"-"`
	FileName       string `yaml:"file_name" json:"-"`
	Judge0ID       int    `yaml:"judge0_id" json:"-"`
}

// Registry is an immutable, ordered language table. It is built once at
// startup and never mutated, so concurrent readers need no locking.
type Registry struct {
	entries []Entry
	byKey   map[string]int
}

// NewRegistry builds a registry from entries, preserving their order.
func NewRegistry(entries ...Entry) (*Registry, error) {
	reg := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e.Key = strings.TrimSpace(e.Key)
		if e.Key == "" {
			return nil, errors.New("language entry missing key")
		}
		if _, exists := reg.byKey[e.Key]; exists {
			return nil, fmt.Errorf("duplicate language entry %q", e.Key)
		}
		if e.Name == "" {
			e.Name = e.Key
		}
		reg.byKey[e.Key] = len(reg.entries)
		reg.entries = append(reg.entries, e)
	}
	if len(reg.entries) == 0 {
		return nil, errors.New("language registry is empty")
	}
	return reg, nil
}

// LoadFile builds a registry from a YAML file holding a "languages" list.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language table: %w", err)
	}
	var doc struct {
		Languages []Entry `yaml:"languages"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse language table: %w", err)
	}
	return NewRegistry(doc.Languages...)
}

func (r *Registry) IsSupported(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// List returns the registry keys in table order.
func (r *Registry) List() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the table in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Resolve looks up a language by key.
func (r *Registry) Resolve(key string) (Entry, error) {
	idx, ok := r.byKey[key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, key)
	}
	return r.entries[idx], nil
}
