package providers

import (
	"os"
	"strings"
)

// DiscoverCredentials scans environ (KEY=VALUE pairs, as returned by
// os.Environ) for variables whose name starts with a known provider prefix
// and whose value is non-empty after trimming. One Credential is emitted per
// matching variable, in environ order.
//
// It never fails: no matches is a valid, empty result.
func DiscoverCredentials(environ []string) []Credential {
	return DiscoverCredentialsWith(DefaultSpecs, environ)
}

// DiscoverCredentialsWith is DiscoverCredentials over an explicit provider
// table. A variable is claimed by the first spec whose prefix matches.
func DiscoverCredentialsWith(specs []Spec, environ []string) []Credential {
	var creds []Credential
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		for _, s := range specs {
			if !strings.HasPrefix(name, s.EnvPrefix) {
				continue
			}
			creds = append(creds, Credential{
				Provider: s.Kind,
				BaseURL:  s.BaseURL,
				Secret:   value,
				SourceID: name,
			})
			break
		}
	}
	return creds
}

// FromEnvironment discovers credentials from the live process environment.
// It is the only place the routing core reads process state; call it once
// per request.
func FromEnvironment() []Credential {
	return DiscoverCredentials(os.Environ())
}

// Prefixes returns the env prefixes of the given kinds, in order, using
// specs to resolve them. Unknown kinds are skipped.
func Prefixes(specs []Spec, kinds ...Kind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		for _, s := range specs {
			if s.Kind == k {
				out = append(out, s.EnvPrefix)
				break
			}
		}
	}
	return out
}
