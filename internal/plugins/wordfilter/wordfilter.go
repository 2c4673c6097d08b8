// Package wordfilter provides a guardrail plugin that rejects chat messages
// containing blocked words. Register it with a blank import:
//
//	_ "github.com/blueember/storefront-chat/internal/plugins/wordfilter"
package wordfilter

import (
	"context"
	"strings"

	"github.com/blueember/storefront-chat/plugin"
	"github.com/blueember/storefront-chat/providers"
)

// Name is the registry name of the plugin.
const Name = "word-filter"

func init() {
	plugin.RegisterFactory(Name, func() plugin.Plugin {
		return &WordFilter{}
	})
}

// WordFilter blocks requests whose user message contains one of the
// configured words or phrases. The system prompt is not inspected.
type WordFilter struct {
	blockedWords  []string
	caseSensitive bool
}

// Name returns the plugin identifier.
func (w *WordFilter) Name() string { return Name }

// Type returns the plugin lifecycle hook type.
func (w *WordFilter) Type() plugin.PluginType { return plugin.TypeGuardrail }

// Init reads blocked_words (list) and case_sensitive (bool).
func (w *WordFilter) Init(config map[string]interface{}) error {
	words, err := plugin.StringList(config, "blocked_words")
	if err != nil {
		return err
	}
	w.blockedWords = nil
	for _, word := range words {
		if strings.TrimSpace(word) != "" {
			w.blockedWords = append(w.blockedWords, word)
		}
	}
	if cs, ok := config["case_sensitive"].(bool); ok {
		w.caseSensitive = cs
	}
	return nil
}

// Execute rejects the request on the first blocked word found.
func (w *WordFilter) Execute(_ context.Context, pctx *plugin.Context) error {
	if pctx.Request == nil || len(w.blockedWords) == 0 {
		return nil
	}

	for _, msg := range pctx.Request.Messages {
		if msg.Role != providers.RoleUser {
			continue
		}
		content := msg.Content
		if !w.caseSensitive {
			content = strings.ToLower(content)
		}
		for _, word := range w.blockedWords {
			check := word
			if !w.caseSensitive {
				check = strings.ToLower(check)
			}
			if strings.Contains(content, check) {
				pctx.Reject = true
				pctx.Reason = "blocked word detected: " + word
				return nil
			}
		}
	}
	return nil
}
