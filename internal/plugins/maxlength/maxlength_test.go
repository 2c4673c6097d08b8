package maxlength

import (
	"context"
	"strings"
	"testing"

	"github.com/blueember/storefront-chat/plugin"
	"github.com/blueember/storefront-chat/providers"
)

func newContext(msg string) *plugin.Context {
	req := providers.NewChatRequest("m", strings.Repeat("s", 500), msg)
	return plugin.NewContext(&req)
}

func TestMaxLength_Default(t *testing.T) {
	m := &MaxLength{}
	if err := m.Init(nil); err != nil {
		t.Fatal(err)
	}
	if m.maxInputLen != DefaultMaxInputLength {
		t.Errorf("maxInputLen = %d, want %d", m.maxInputLen, DefaultMaxInputLength)
	}
}

func TestMaxLength_RejectsLongMessage(t *testing.T) {
	tests := []struct {
		name   string
		limit  interface{}
		msg    string
		reject bool
	}{
		{"under limit", 10, "hello", false},
		{"at limit", 5, "hello", false},
		{"over limit", 4, "hello", true},
		{"json number", float64(4), "hello", true},
		{"counts runes not bytes", 3, "äöü", false},
		{"system prompt ignored", 100, "hi", false},
		{"zero disables", 0, strings.Repeat("x", 10000), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MaxLength{}
			if err := m.Init(map[string]interface{}{"max_input_length": tt.limit}); err != nil {
				t.Fatal(err)
			}
			pctx := newContext(tt.msg)
			if err := m.Execute(context.Background(), pctx); err != nil {
				t.Fatal(err)
			}
			if pctx.Reject != tt.reject {
				t.Errorf("Reject = %v, want %v (reason %q)", pctx.Reject, tt.reject, pctx.Reason)
			}
		})
	}
}

func TestMaxLength_InitErrors(t *testing.T) {
	for _, v := range []interface{}{-1, "ten", 2.5} {
		m := &MaxLength{}
		if err := m.Init(map[string]interface{}{"max_input_length": v}); err == nil {
			t.Errorf("Init(%v) should fail", v)
		}
	}
}
