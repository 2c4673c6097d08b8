// Package maxlength provides a guardrail plugin that caps the length of the
// user's chat message. Register it with a blank import:
//
//	_ "github.com/blueember/storefront-chat/internal/plugins/maxlength"
package maxlength

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/blueember/storefront-chat/plugin"
)

// Name is the registry name of the plugin.
const Name = "max-length"

// DefaultMaxInputLength applies when max_input_length is not configured.
const DefaultMaxInputLength = 4000

func init() {
	plugin.RegisterFactory(Name, func() plugin.Plugin {
		return &MaxLength{}
	})
}

// MaxLength rejects messages longer than a configured number of runes.
type MaxLength struct {
	maxInputLen int
}

// Name returns the plugin identifier.
func (m *MaxLength) Name() string { return Name }

// Type returns the plugin lifecycle hook type.
func (m *MaxLength) Type() plugin.PluginType { return plugin.TypeGuardrail }

// Init reads max_input_length. Zero disables the check.
func (m *MaxLength) Init(config map[string]interface{}) error {
	m.maxInputLen = DefaultMaxInputLength
	n, ok, err := plugin.Int(config, "max_input_length")
	if err != nil {
		return err
	}
	if ok {
		if n < 0 {
			return fmt.Errorf("max_input_length must be >= 0, got %d", n)
		}
		m.maxInputLen = n
	}
	return nil
}

// Execute rejects the request when the user message is too long.
func (m *MaxLength) Execute(_ context.Context, pctx *plugin.Context) error {
	if pctx.Request == nil || m.maxInputLen == 0 {
		return nil
	}
	if n := utf8.RuneCountInString(pctx.Request.UserMessage()); n > m.maxInputLen {
		pctx.Reject = true
		pctx.Reason = fmt.Sprintf("message length %d exceeds limit of %d", n, m.maxInputLen)
	}
	return nil
}
