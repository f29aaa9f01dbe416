package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Formatter renders a report into bytes.
type Formatter func(r *Report) ([]byte, error)

// Registry maps format names to formatters, enabling pluggable output
// formats for every command.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter under the given name.
// Existing entries for the same name are overwritten.
func (r *Registry) Register(name string, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.formatters[name] = f
}

// Formatter returns the formatter for name, or an error if not found.
func (r *Registry) Formatter(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, r.availableLocked())
	}

	return f, nil
}

// Formats returns the sorted list of registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.formatsLocked()
}

// AvailableFormats returns a comma-separated string of registered format names.
func (r *Registry) AvailableFormats() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.availableLocked()
}

func (r *Registry) formatsLocked() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) availableLocked() string {
	formats := r.formatsLocked()
	if len(formats) == 0 {
		return "none"
	}

	return strings.Join(formats, ", ")
}

// DefaultRegistry returns a registry pre-populated with the built-in
// formats: yaml, json, text.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(FormatYAML, func(rep *Report) ([]byte, error) {
		return SerializeYAML(rep)
	})

	r.Register(FormatJSON, func(rep *Report) ([]byte, error) {
		return SerializeJSON(rep, "  ")
	})

	r.Register(FormatText, FormatTextReport)

	return r
}
