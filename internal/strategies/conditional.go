package strategies

import (
	"strings"

	"github.com/blueember/storefront-chat/providers"
)

// Rule names of the default table.
const (
	RuleOpenRouter = "openrouter"
	RuleHybrid     = "hybrid"
	RuleRouteway   = "routeway"
)

// Rule maps a model predicate to the providers whose credentials form the
// chain, in attempt order. A nil Match matches every model.
type Rule struct {
	Name      string
	Match     func(model string) bool
	Providers []providers.Kind
}

// Matches reports whether the rule applies to model.
func (r Rule) Matches(model string) bool {
	return r.Match == nil || r.Match(model)
}

// ModelContains returns a predicate that is true when the model identifier
// contains marker.
func ModelContains(marker string) func(string) bool {
	return func(model string) bool { return strings.Contains(model, marker) }
}

// DefaultRules returns the production routing table:
//
//	*gpt-oss-20b*  → OpenRouter
//	*gpt-oss-120b* → OpenRouter, then Routeway
//	anything else  → Routeway
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleOpenRouter, Match: ModelContains("gpt-oss-20b"), Providers: []providers.Kind{providers.OpenRouter}},
		{Name: RuleHybrid, Match: ModelContains("gpt-oss-120b"), Providers: []providers.Kind{providers.OpenRouter, providers.Routeway}},
		{Name: RuleRouteway, Providers: []providers.Kind{providers.Routeway}},
	}
}

// Conditional routes a model to a chain using ordered rules.
type Conditional struct {
	rules []Rule
}

// NewConditional creates a conditional selector.
// Rules are evaluated in order; the first match wins. A table without a
// catch-all yields an empty chain for unmatched models.
func NewConditional(rules ...Rule) *Conditional {
	return &Conditional{rules: append([]Rule(nil), rules...)}
}

// DefaultConditional is NewConditional(DefaultRules()...).
func DefaultConditional() *Conditional {
	return NewConditional(DefaultRules()...)
}

// Rules returns the rule table in evaluation order.
func (c *Conditional) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Match returns the first rule that applies to model.
func (c *Conditional) Match(model string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Matches(model) {
			return r, true
		}
	}
	return Rule{}, false
}

// Select returns the rule that fired and the chain it builds from creds.
// Credentials of each provider keep their relative order; providers are
// concatenated in rule order.
func (c *Conditional) Select(model string, creds []providers.Credential) (Rule, []providers.Credential) {
	rule, ok := c.Match(model)
	if !ok {
		return Rule{}, []providers.Credential{}
	}
	chain := make([]providers.Credential, 0, len(creds))
	for _, kind := range rule.Providers {
		for _, cred := range creds {
			if cred.Provider == kind {
				chain = append(chain, cred)
			}
		}
	}
	return rule, chain
}

// SelectChain builds the failover chain for model with the default rules.
func SelectChain(model string, creds []providers.Credential) []providers.Credential {
	_, chain := DefaultConditional().Select(model, creds)
	return chain
}
