package render

import (
	"fmt"
	"sort"

	"github.com/san-kum/chapkde/internal/density"
)

type Registry struct {
	renderers map[string]func(Options) Renderer
}

func NewRegistry() *Registry {
	r := &Registry{
		renderers: make(map[string]func(Options) Renderer),
	}

	r.renderers["png"] = func(o Options) Renderer { return NewPNG(o) }
	r.renderers["none"] = func(Options) Renderer { return Discard{} }

	return r
}

// Register adds or replaces a renderer constructor.
func (r *Registry) Register(name string, fn func(Options) Renderer) {
	r.renderers[name] = fn
}

func (r *Registry) Get(name string, opts Options) (Renderer, error) {
	fn, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("renderer %q: %w", name, density.ErrMissingDependency)
	}
	return fn(opts), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
