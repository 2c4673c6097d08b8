// Package plugin defines the Plugin interface and the lifecycle stages used
// to hook into the chat request pipeline.
//
// Plugins are registered by name via RegisterFactory and loaded by the
// gateway at startup from its configuration. A Context carries the request
// and the reply through each stage; plugins may answer a request locally,
// reject it, or just observe it.
//
// Built-in plugins live in the internal/plugins/* packages and are registered
// by importing them with a blank import (e.g.
// _ "github.com/blueember/storefront-chat/internal/plugins/wordfilter").
package plugin

import (
	"context"

	"github.com/blueember/storefront-chat/providers"
)

// Plugin is the interface all plugins must implement.
type Plugin interface {
	Name() string
	Type() PluginType
	Init(config map[string]interface{}) error
	Execute(ctx context.Context, pctx *Context) error
}

// PluginType categorizes plugins.
//
//nolint:revive // exported name reads better at call sites
type PluginType string

// PluginType constants.
const (
	TypeGuardrail PluginType = "guardrail"
	TypeLogging   PluginType = "logging"
	TypeResponder PluginType = "responder"
)

// Stage defines when a plugin runs in the request lifecycle.
type Stage string

// Stage constants define the execution phases of a chat request.
const (
	StageBeforeRequest Stage = "before_request"
	StageAfterRequest  Stage = "after_request"
	StageOnError       Stage = "on_error"
)

// ValidStage reports whether s names a known stage.
func ValidStage(s Stage) bool {
	switch s {
	case StageBeforeRequest, StageAfterRequest, StageOnError:
		return true
	}
	return false
}

// Context provides access to request and reply data for plugins.
type Context struct {
	Request *providers.Request
	// Reply is the answer text. A before-request plugin that sets Reply and
	// Skip answers the request without contacting any upstream.
	Reply string
	// Source identifies who produced Reply: a plugin name or a credential
	// source ID.
	Source   string
	Metadata map[string]interface{}
	Error    error
	Skip     bool
	Reject   bool
	Reason   string
}

// NewContext creates a new plugin context for a request.
func NewContext(req *providers.Request) *Context {
	return &Context{
		Request:  req,
		Metadata: make(map[string]interface{}),
	}
}

// Answered reports whether a plugin produced a local reply.
func (c *Context) Answered() bool {
	return c.Skip && c.Reply != ""
}

// RejectError is returned when a before-request plugin rejects a request.
type RejectError struct {
	Plugin string
	Reason string
}

func (e *RejectError) Error() string {
	return "request rejected by " + e.Plugin + ": " + e.Reason
}
