package providers

import (
	"fmt"
	"log/slog"
)

// Credential is one usable API secret for a provider, sourced from one
// environment variable.
type Credential struct {
	Provider Kind
	BaseURL  string
	Secret   string
	// SourceID is the originating variable name. It is for diagnostics only;
	// two credentials with equal secrets under different names are distinct.
	SourceID string
}

// MaskedSecret returns the secret with everything but its last four
// characters hidden.
func (c Credential) MaskedSecret() string {
	return MaskSecret(c.Secret)
}

// String implements fmt.Stringer without exposing the secret.
func (c Credential) String() string {
	return fmt.Sprintf("%s(%s)", c.Provider, c.SourceID)
}

// LogValue implements slog.LogValuer so credentials can be logged directly.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", string(c.Provider)),
		slog.String("source_id", c.SourceID),
		slog.String("secret", c.MaskedSecret()),
	)
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	const visible = 4
	if len(s) <= visible {
		return "****"
	}
	return "****" + s[len(s)-visible:]
}
