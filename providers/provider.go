// Package providers defines the upstream chat-completion providers the
// gateway can route to, the credentials discovered for them, and the
// Completer used to call a single credential.
//
// Every provider speaks the OpenAI chat-completions contract, so the router
// treats them as interchangeable; a provider is only a name, an environment
// variable prefix and a fixed base URL.
//
// Core types: Kind, Spec, Credential, Request, Completer.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Kind identifies an upstream provider.
type Kind string

// Supported providers.
const (
	OpenRouter Kind = "OpenRouter"
	Routeway   Kind = "Routeway"
)

// Spec describes how credentials for a provider are discovered and where its
// completion API lives.
type Spec struct {
	Kind Kind
	// EnvPrefix is matched as a name prefix, so PREFIX, PREFIX_2 and
	// PREFIX_17 all resolve to this provider.
	EnvPrefix string
	// BaseURL has no trailing slash; the completion endpoint is
	// BaseURL + "/chat/completions".
	BaseURL string
}

// DefaultSpecs is the provider table used in production.
var DefaultSpecs = []Spec{
	{Kind: OpenRouter, EnvPrefix: "OPENROUTER_API_KEY", BaseURL: "https://openrouter.ai/api/v1"},
	{Kind: Routeway, EnvPrefix: "ROUTEWAY_API_KEY", BaseURL: "https://api.routeway.ai/v1"},
}

// SpecFor returns the default spec for kind.
func SpecFor(kind Kind) (Spec, bool) {
	for _, s := range DefaultSpecs {
		if s.Kind == kind {
			return s, true
		}
	}
	return Spec{}, false
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the completion request sent to every candidate of a chain.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// NewChatRequest builds the two-turn request used by the storefront: a fixed
// system prompt followed by the user's message.
func NewChatRequest(model, systemPrompt, message string) Request {
	return Request{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: message},
		},
	}
}

// UserMessage returns the content of the last user turn, or "".
func (r Request) UserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Completer issues one completion request against one credential.
//
// Implementations return the reply text on success, ErrEmptyReply when the
// upstream answered 2xx without usable content, and any other error for
// HTTP or transport failures. They must not retry.
type Completer interface {
	Complete(ctx context.Context, cred Credential, req Request) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, cred Credential, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, cred Credential, req Request) (string, error) {
	return f(ctx, cred, req)
}

// ErrEmptyReply is returned when an upstream responds successfully but the
// response carries no reply content.
var ErrEmptyReply = errors.New("upstream returned no reply content")

// UpstreamError is a non-2xx answer from a provider.
type UpstreamError struct {
	StatusCode int
	// Message is error.message from the response body, or the status text
	// when the body carried none.
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Message)
}

// newUpstreamError fills Message with the status text when msg is empty.
func newUpstreamError(status int, msg string) *UpstreamError {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &UpstreamError{StatusCode: status, Message: msg}
}
