package localresponder

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/blueember/storefront-chat/plugin"
	"github.com/blueember/storefront-chat/providers"
)

func initResponder(t *testing.T, config map[string]interface{}) *LocalResponder {
	t.Helper()
	l := &LocalResponder{}
	if err := l.Init(config); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return l
}

func newContext(msg string) *plugin.Context {
	req := providers.NewChatRequest("openai/gpt-oss-20b:free", "sys", msg)
	return plugin.NewContext(&req)
}

func TestEmbeddedTable(t *testing.T) {
	if len(table.Rules) < 80 {
		t.Errorf("expected the full keyword table, got %d rules", len(table.Rules))
	}
	for i, r := range table.Rules {
		if len(r.Keywords) == 0 || r.Reply == "" {
			t.Errorf("rule %d is incomplete: %+v", i, r)
		}
		for _, k := range r.Keywords {
			if k != strings.ToLower(k) {
				t.Errorf("rule %d keyword %q is not lower case", i, k)
			}
		}
	}
	if table.ShortReply == "" || table.QuestionReply == "" {
		t.Error("generic replies missing")
	}
}

func TestRespond(t *testing.T) {
	tests := []struct {
		msg     string
		prefix  string
		matched bool
	}{
		{"Do you sell a FRIDGE", "Check out our wide selection of refrigerators", true},
		{"bosch", "BOSCH offers premium home appliances", true},
		{"hello", "Hello! Welcome to Evora Electronics.", true},
		{"  xyz ", "I'd be happy to help!", true},
		{"qwxz bvv?", "That's a great question!", true},
		{"zzzz qqqq", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			reply, ok := Respond(tt.msg)
			if ok != tt.matched {
				t.Fatalf("Respond(%q) matched = %v, want %v", tt.msg, ok, tt.matched)
			}
			if !strings.HasPrefix(reply, tt.prefix) {
				t.Errorf("Respond(%q) = %q, want prefix %q", tt.msg, reply, tt.prefix)
			}
		})
	}
}

func TestLocalResponder_Registered(t *testing.T) {
	f, ok := plugin.GetFactory(Name)
	if !ok {
		t.Fatalf("%s not registered", Name)
	}
	if f().Type() != plugin.TypeResponder {
		t.Error("unexpected plugin type")
	}
}

func TestLocalResponder_ShortCircuits(t *testing.T) {
	l := initResponder(t, nil)
	pctx := newContext("what is your warranty")
	if err := l.Execute(context.Background(), pctx); err != nil {
		t.Fatal(err)
	}
	if !pctx.Answered() || pctx.Source != Name {
		t.Fatalf("context = %+v, want local answer", pctx)
	}
	if !strings.Contains(pctx.Reply, "manufacturer warranties") {
		t.Errorf("reply = %q", pctx.Reply)
	}
}

func TestLocalResponder_PassesThrough(t *testing.T) {
	l := initResponder(t, nil)
	pctx := newContext("zzzz qqqq")
	_ = l.Execute(context.Background(), pctx)
	if pctx.Skip || pctx.Reply != "" {
		t.Errorf("unmatched message must reach the router: %+v", pctx)
	}
}

func TestLocalResponder_GenericRepliesDisabled(t *testing.T) {
	l := initResponder(t, map[string]interface{}{"generic_replies": false})
	if _, ok := l.Respond("xyz"); ok {
		t.Error("short message should not be answered with generic replies off")
	}
	if _, ok := l.Respond("qwxz bvv?"); ok {
		t.Error("question should not be answered with generic replies off")
	}
	if _, ok := l.Respond("fridge"); !ok {
		t.Error("keyword rules still apply")
	}
}

func TestLocalResponder_ExtraRulesFirst(t *testing.T) {
	l := initResponder(t, map[string]interface{}{
		"rules": []interface{}{
			map[string]interface{}{"keywords": []interface{}{"Mega Sale", "fridge"}, "reply": "Mega Sale: 50% off!"},
		},
	})
	for _, msg := range []string{"is there a mega sale", "fridge"} {
		if reply, _ := l.Respond(msg); reply != "Mega Sale: 50% off!" {
			t.Errorf("Respond(%q) = %q", msg, reply)
		}
	}
}

func TestLocalResponder_InvalidRules(t *testing.T) {
	for name, rules := range map[string]interface{}{
		"missing reply":    []interface{}{map[string]interface{}{"keywords": []interface{}{"x"}}},
		"missing keywords": []interface{}{map[string]interface{}{"reply": "x"}},
		"not a list":       "x",
	} {
		t.Run(name, func(t *testing.T) {
			l := &LocalResponder{}
			if err := l.Init(map[string]interface{}{"rules": rules}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFallback(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	if got := Fallback("do you deliver?", rnd); got != table.Offline.QuestionReply {
		t.Errorf("question fallback = %q", got)
	}
	if got := Fallback("ok then", rnd); got != table.Offline.ShortReply {
		t.Errorf("short fallback = %q", got)
	}
	pool := FallbackReplies()
	got := Fallback("tell me something about your store", rnd)
	found := false
	for _, r := range pool {
		if r == got {
			found = true
		}
	}
	if !found {
		t.Errorf("Fallback returned %q, not in the reply pool", got)
	}
	if Fallback("tell me something about your store", nil) == "" {
		t.Error("nil source should still pick a reply")
	}
}
