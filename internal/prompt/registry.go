package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds compiled templates by name.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewRegistry() *Registry {
	return &Registry{templates: map[string]*Template{}}
}

// Register compiles and adds s. Re-registering a name replaces it.
func (r *Registry) Register(s Spec) error {
	t, err := Compile(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.templates[t.Name] = t
	r.mu.Unlock()
	return nil
}

// RegisterSpec is Register for static declarations; a bad spec is a
// programming error and panics.
func (r *Registry) RegisterSpec(s Spec) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// List returns all templates sorted by name.
func (r *Registry) List() []*Template {
	r.mu.RLock()
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Build renders the named template.
func (r *Registry) Build(name string, req Request) (Prompt, error) {
	t, ok := r.Get(name)
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return t.Render(req)
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry of built-in FounderFlow templates.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		RegisterBuiltins(defaultReg)
	})
	return defaultReg
}
