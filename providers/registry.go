package providers

import "sort"

// Registry is an immutable snapshot of discovered credentials grouped by
// provider. Build a fresh one per request; it is never cached.
type Registry struct {
	all    []Credential
	byKind map[Kind][]Credential
}

// NewRegistry groups creds by provider, preserving their relative order.
func NewRegistry(creds []Credential) *Registry {
	r := &Registry{
		all:    append([]Credential(nil), creds...),
		byKind: make(map[Kind][]Credential),
	}
	for _, c := range creds {
		r.byKind[c.Provider] = append(r.byKind[c.Provider], c)
	}
	return r
}

// All returns every credential in discovery order.
func (r *Registry) All() []Credential {
	return append([]Credential(nil), r.all...)
}

// ByProvider returns the credentials of one provider in discovery order.
func (r *Registry) ByProvider(kind Kind) []Credential {
	return append([]Credential(nil), r.byKind[kind]...)
}

// Providers returns the kinds that have at least one credential, sorted by name.
func (r *Registry) Providers() []Kind {
	kinds := make([]Kind, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Len returns the total number of credentials.
func (r *Registry) Len() int { return len(r.all) }
