package chatgw

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blueember/storefront-chat/internal/strategies"
)

// ErrMessageRequired is returned for a missing or blank chat message.
var ErrMessageRequired = errors.New("message required")

// NoCredentialsError means the routing rule for a model found no usable
// credential in the environment.
type NoCredentialsError struct {
	Model string
	Rule  string
	// Prefixes are the environment variable prefixes that would satisfy
	// the rule.
	Prefixes []string
}

func (e *NoCredentialsError) Error() string {
	return fmt.Sprintf("no credentials for model %q (rule %s)", e.Model, e.Rule)
}

// Unwrap lets callers match strategies.ErrNoCredentials.
func (e *NoCredentialsError) Unwrap() error { return strategies.ErrNoCredentials }

// Guidance tells an operator which variables to set.
func (e *NoCredentialsError) Guidance() string {
	if len(e.Prefixes) == 0 {
		return "No provider is configured for this model."
	}
	names := make([]string, len(e.Prefixes))
	for i, p := range e.Prefixes {
		names[i] = p + " or " + p + "_<n>"
	}
	return "Set " + strings.Join(names, ", or ") + " in the server environment."
}

// FailoverError reports a chain that produced no reply.
type FailoverError struct {
	Model       string
	Rule        string
	ChainLength int
	Err         error
}

func (e *FailoverError) Error() string {
	return fmt.Sprintf("model %q (rule %s, %d credentials): %v", e.Model, e.Rule, e.ChainLength, e.Err)
}

func (e *FailoverError) Unwrap() error { return e.Err }

// Details is the last upstream failure as shown to clients.
func (e *FailoverError) Details() string {
	var ex *strategies.ExhaustedError
	if errors.As(e.Err, &ex) {
		return ex.Details()
	}
	if e.Err == nil {
		return "Unknown error"
	}
	return e.Err.Error()
}
