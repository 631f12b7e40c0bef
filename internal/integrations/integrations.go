// Package integrations connects projects to third-party services.
//
// Every service type is a Provider. Credentials are stored per project and type
// in the integrations table and only become active after a successful test call
// or an explicit save with the active flag.
package integrations

import (
	"context"
	"errors"
	"sort"
)

var (
	// ErrUnknownType is returned for provider types missing from the registry.
	ErrUnknownType = errors.New("unknown integration type")

	// ErrTestFailed wraps the reason of a failed test call.
	ErrTestFailed = errors.New("test failed")
)

// Field describes one credential property of a provider.
type Field struct {
	Name        string
	Title       string
	Help        string
	Placeholder string
	Secret      bool   // never echoed back, a blank submission keeps the stored value
	Required    bool   // must be set before the integration can be active
	Validate    string // optional validator tag applied to non-blank values, e.g. "url"
}

// Provider is one third-party service.
type Provider interface {
	Type() string
	Title() string
	Description() string
	Fields() []Field

	// Test performs a single call against the service with props and returns
	// a short description of the response.
	Test(ctx context.Context, props map[string]string) (string, error)
}

// Registry holds the providers by type.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry. Later providers replace earlier ones of the same type.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}

	for _, p := range providers {
		r.providers[p.Type()] = p
	}

	return r
}

// Get returns the provider of type t.
func (r *Registry) Get(t string) (Provider, bool) {
	p, ok := r.providers[t]

	return p, ok
}

// All returns every provider sorted by title.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Title() < out[j].Title() })

	return out
}

// Types returns the registered types sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.providers))
	for t := range r.providers {
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}
