package tools

import (
	"errors"
	"fmt"
)

// Registry is the fixed, ordered set of enabled tools. It is built once at
// start-up and never mutated.
type Registry struct {
	specs  []Spec
	byName map[string]int
}

// NewRegistry validates specs and freezes them in the given order.
func NewRegistry(specs []Spec) (Registry, error) {
	r := Registry{
		specs:  make([]Spec, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		if s.Name == "" {
			return Registry{}, errors.New("tool with empty name")
		}
		if _, dup := r.byName[s.Name]; dup {
			return Registry{}, fmt.Errorf("duplicate tool %q", s.Name)
		}
		if s.Image == "" {
			return Registry{}, fmt.Errorf("tool %q: image is required", s.Name)
		}
		if _, err := ParseContentType(string(s.ContentType)); err != nil {
			return Registry{}, fmt.Errorf("tool %q: %w", s.Name, err)
		}
		s.Command = append([]string(nil), s.Command...)
		env := make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			env[k] = v
		}
		s.Env = env
		r.byName[s.Name] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Names lists tool names in registry order.
func (r Registry) Names() []string {
	out := make([]string, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.Name
	}
	return out
}

// Specs returns a copy of all specs in registry order.
func (r Registry) Specs() []Spec {
	return append([]Spec(nil), r.specs...)
}

// Lookup finds a spec by name.
func (r Registry) Lookup(name string) (Spec, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Resolve maps requested names to specs. No names means every enabled tool.
// Unknown names are collected and rejected together. The result follows
// registry order and has no duplicates.
func (r Registry) Resolve(requested []string) ([]Spec, error) {
	if len(requested) == 0 {
		return r.Specs(), nil
	}
	want := make(map[string]bool, len(requested))
	var unknown []string
	for _, name := range requested {
		if _, ok := r.byName[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		want[name] = true
	}
	if len(unknown) > 0 {
		return nil, &UnknownToolError{Names: unknown, Known: r.Names()}
	}
	out := make([]Spec, 0, len(want))
	for _, s := range r.specs {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}
