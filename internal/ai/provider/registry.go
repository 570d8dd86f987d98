package provider

import "strings"

// Registry holds the providers that were configured at startup, in
// registration order. Dispatch happens through this table instead of
// string branching at call sites; adding a backend is one more entry.
type Registry struct {
	order []string
	byID  map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byID: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			continue
		}
		if _, dup := r.byID[name]; dup {
			continue
		}
		r.byID[name] = p
		r.order = append(r.order, name)
	}
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byID[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Ordered returns every registered provider in registration order.
// Council transcripts follow this order, not call-completion order.
func (r *Registry) Ordered() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byID[name])
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }
