// Package localresponder provides a plugin that answers common storefront
// questions from a fixed keyword table without calling any upstream.
// Register it with a blank import:
//
//	_ "github.com/blueember/storefront-chat/internal/plugins/localresponder"
package localresponder

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/blueember/storefront-chat/plugin"
)

// Name is the registry name of the plugin.
const Name = "local-responder"

//go:embed responses.yaml
var responsesYAML []byte

// Rule answers with Reply when the lower-cased message contains any of
// Keywords as a substring.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

type responseTable struct {
	Rules         []Rule `yaml:"rules"`
	ShortReply    string `yaml:"short_reply"`
	QuestionReply string `yaml:"question_reply"`
	Offline       struct {
		QuestionReply string   `yaml:"question_reply"`
		ShortReply    string   `yaml:"short_reply"`
		Replies       []string `yaml:"replies"`
	} `yaml:"offline"`
}

var table = mustLoadTable(responsesYAML)

func mustLoadTable(data []byte) responseTable {
	var t responseTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		panic(fmt.Sprintf("localresponder: invalid embedded table: %v", err))
	}
	if len(t.Rules) == 0 || len(t.Offline.Replies) == 0 {
		panic("localresponder: embedded table is empty")
	}
	return t
}

func init() {
	plugin.RegisterFactory(Name, func() plugin.Plugin {
		return &LocalResponder{}
	})
}

// LocalResponder short-circuits requests that match the keyword table.
type LocalResponder struct {
	rules   []Rule
	generic bool
}

// Name returns the plugin identifier.
func (l *LocalResponder) Name() string { return Name }

// Type returns the plugin lifecycle hook type.
func (l *LocalResponder) Type() plugin.PluginType { return plugin.TypeResponder }

// Init reads generic_replies (bool, default true) and rules, a list of
// {keywords, reply} checked before the built-in table.
func (l *LocalResponder) Init(config map[string]interface{}) error {
	l.generic = true
	if v, ok := config["generic_replies"].(bool); ok {
		l.generic = v
	}

	var extra []Rule
	if raw, ok := config["rules"]; ok && raw != nil {
		b, err := yaml.Marshal(raw)
		if err != nil {
			return fmt.Errorf("rules: %w", err)
		}
		if err := yaml.Unmarshal(b, &extra); err != nil {
			return fmt.Errorf("rules: %w", err)
		}
	}
	l.rules = make([]Rule, 0, len(extra)+len(table.Rules))
	for i, r := range extra {
		if len(r.Keywords) == 0 || strings.TrimSpace(r.Reply) == "" {
			return fmt.Errorf("rules[%d]: keywords and reply are required", i)
		}
		kws := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			kws[j] = strings.ToLower(k)
		}
		l.rules = append(l.rules, Rule{Keywords: kws, Reply: r.Reply})
	}
	l.rules = append(l.rules, table.Rules...)
	return nil
}

// Execute answers the request locally when a rule matches.
func (l *LocalResponder) Execute(_ context.Context, pctx *plugin.Context) error {
	if pctx.Request == nil {
		return nil
	}
	if reply, ok := l.Respond(pctx.Request.UserMessage()); ok {
		pctx.Reply = reply
		pctx.Source = Name
		pctx.Skip = true
	}
	return nil
}

// Respond returns the canned reply for message, if any.
func (l *LocalResponder) Respond(message string) (string, bool) {
	return respond(l.rules, l.generic, message)
}

// Respond matches message against the built-in table with generic replies
// enabled.
func Respond(message string) (string, bool) {
	return respond(table.Rules, true, message)
}

func respond(rules []Rule, generic bool, message string) (string, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	for _, r := range rules {
		for _, k := range r.Keywords {
			if strings.Contains(msg, k) {
				return r.Reply, true
			}
		}
	}
	if !generic {
		return "", false
	}
	if utf8.RuneCountInString(msg) < 5 {
		return table.ShortReply, true
	}
	if strings.Contains(msg, "?") {
		return table.QuestionReply, true
	}
	return "", false
}

// Fallback produces a friendly reply for an unanswered message when no
// upstream is reachable. rnd picks among the generic replies; nil uses the
// global source.
func Fallback(message string, rnd *rand.Rand) string {
	msg := strings.ToLower(strings.TrimSpace(message))
	if strings.Contains(msg, "?") {
		return table.Offline.QuestionReply
	}
	if utf8.RuneCountInString(msg) < 10 {
		return table.Offline.ShortReply
	}
	replies := table.Offline.Replies
	if rnd == nil {
		return replies[rand.IntN(len(replies))]
	}
	return replies[rnd.IntN(len(replies))]
}

// FallbackReplies returns the pool Fallback picks from.
func FallbackReplies() []string {
	return append([]string(nil), table.Offline.Replies...)
}
