package style

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry resolves style names and labels. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	styles []Style
	byKey  map[string]int
}

// NewRegistry returns a registry holding the built-in styles.
func NewRegistry() *Registry {
	r := &Registry{byKey: make(map[string]int)}
	for _, s := range Builtins() {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a style. Names and labels must not collide with existing ones.
func (r *Registry) Register(s Style) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("style name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("style %q has no steps", s.Name)
	}
	if s.Label == "" {
		s.Label = s.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	keys := []string{normalize(s.Name), normalize(s.Label)}
	for _, k := range keys {
		if i, ok := r.byKey[k]; ok {
			return fmt.Errorf("style %q conflicts with existing style %q", s.Name, r.styles[i].Name)
		}
	}
	r.styles = append(r.styles, s)
	for _, k := range keys {
		r.byKey[k] = len(r.styles) - 1
	}
	return nil
}

// Lookup finds a style by name ("comic") or label ("Comic Style"), ignoring
// case, spaces, dashes and underscores.
func (r *Registry) Lookup(name string) (Style, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byKey[normalize(name)]
	if !ok {
		return Style{}, false
	}
	return r.styles[i], true
}

// Styles returns all registered styles in registration order.
func (r *Registry) Styles() []Style {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Style, len(r.styles))
	copy(out, r.styles)
	return out
}

// Names returns the registered style names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.styles))
	for i, s := range r.styles {
		names[i] = s.Name
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by Lookup and Names.
func Default() *Registry { return defaultRegistry }

// Lookup resolves a style in the default registry.
func Lookup(name string) (Style, bool) { return defaultRegistry.Lookup(name) }

// Names lists the styles in the default registry.
func Names() []string { return defaultRegistry.Names() }

func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
