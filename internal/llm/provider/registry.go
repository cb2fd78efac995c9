package provider

import (
	"fmt"
	"net/url"
	"strings"
)

// Registry looks Specs up by id or by the domain of a caller-supplied base
// URL, the same two lookup paths as the teacher's Registry
// (Get/GetByDomain), adapted to hold immutable Specs instead of mutable
// Provider instances.
type Registry struct {
	specs      map[string]*Spec
	domainSpec map[string]string // hostname -> spec id
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:      map[string]*Spec{},
		domainSpec: map[string]string{},
	}
}

// Register adds a spec, optionally associating it with one or more hostnames
// for GetByDomain lookups (e.g. "api.openai.com" -> "openai").
func (r *Registry) Register(spec *Spec, domains ...string) {
	r.specs[spec.ID] = spec
	for _, d := range domains {
		r.domainSpec[strings.ToLower(d)] = spec.ID
	}
}

// Get retrieves a spec by id.
func (r *Registry) Get(id string) (*Spec, bool) {
	s, ok := r.specs[id]
	return s, ok
}

// GetByDomain resolves a spec from an API base URL's hostname, used when a
// caller configures only a base URL (e.g. a self-hosted OpenAI-compatible
// gateway) and expects the provider identity to be inferred.
func (r *Registry) GetByDomain(apiBase string) (*Spec, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if id, ok := r.domainSpec[host]; ok {
		if s, ok := r.specs[id]; ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no provider registered for domain: %s", host)
}

// List returns every registered spec id.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.specs))
	for id := range r.specs {
		names = append(names, id)
	}
	return names
}
