package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go"
)

// DefaultUpstreamTimeout bounds a single completion call.
const DefaultUpstreamTimeout = 60 * time.Second

// OpenAICompatible calls the OpenAI-style /chat/completions endpoint of
// whichever provider the credential belongs to. Request and response bodies
// use the openai-go wire types.
//
// Each Complete issues exactly one HTTP request; failover between
// credentials is the caller's job.
type OpenAICompatible struct {
	httpClient *http.Client
	// optional HTTP-Referer / X-Title attribution; empty values are not sent

	referer string
	title   string
}

// OpenAIOption configures an OpenAICompatible completer.
type OpenAIOption func(*OpenAICompatible)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAICompatible) { o.httpClient = c }
}

// WithTimeout sets the per-call timeout on the default client.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(o *OpenAICompatible) { o.httpClient = &http.Client{Timeout: d} }
}

// WithAttribution sets the HTTP-Referer and X-Title headers.
func WithAttribution(referer, title string) OpenAIOption {
	return func(o *OpenAICompatible) {
		o.referer = referer
		o.title = title
	}
}

// NewOpenAICompatible returns a completer with a DefaultUpstreamTimeout client.
func NewOpenAICompatible(opts ...OpenAIOption) *OpenAICompatible {
	o := &OpenAICompatible{httpClient: &http.Client{Timeout: DefaultUpstreamTimeout}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type upstreamErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends req to cred's provider and returns the first choice's
// message content.
func (o *OpenAICompatible) Complete(ctx context.Context, cred Credential, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: buildOpenAIMessages(req.Messages),
	}
	body, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cred.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+cred.Secret)
	httpReq.Header.Set("Content-Type", "application/json")
	if o.referer != "" {
		httpReq.Header.Set("HTTP-Referer", o.referer)
	}
	if o.title != "" {
		httpReq.Header.Set("X-Title", o.title)
	}

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		var errResp upstreamErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		return "", newUpstreamError(httpResp.StatusCode, errResp.Error.Message)
	}

	var completion openai.ChatCompletion
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	return completion.Choices[0].Message.Content, nil
}

// buildOpenAIMessages converts gateway Messages to the openai-go SDK union type.
func buildOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
