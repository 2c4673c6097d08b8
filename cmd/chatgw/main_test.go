package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatgw "github.com/blueember/storefront-chat"
	"github.com/blueember/storefront-chat/models"
	"github.com/blueember/storefront-chat/providers"
)

type fakeUpstream struct {
	replies map[string]string
	calls   []string
}

func (f *fakeUpstream) Complete(_ context.Context, cred providers.Credential, _ providers.Request) (string, error) {
	f.calls = append(f.calls, cred.SourceID)
	if r, ok := f.replies[cred.SourceID]; ok {
		return r, nil
	}
	return "", &providers.UpstreamError{StatusCode: 401, Message: "invalid key"}
}

func noSleep(context.Context, time.Duration) error { return nil }

func testRouter(t *testing.T, cfg chatgw.Config, up *fakeUpstream, env ...string) http.Handler {
	t.Helper()
	gw, err := chatgw.New(cfg,
		chatgw.WithCompleter(up),
		chatgw.WithEnviron(func() []string { return env }),
		chatgw.WithSleep(noSleep),
		chatgw.WithCatalog(models.Bundled()),
	)
	if err != nil {
		t.Fatalf("chatgw.New: %v", err)
	}
	if err := gw.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins: %v", err)
	}
	return newRouter(gw)
}

func postChat(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return w, out
}

func TestChat_Success(t *testing.T) {
	up := &fakeUpstream{replies: map[string]string{"OPENROUTER_API_KEY_2": "Hi there"}}
	h := testRouter(t, chatgw.Config{}, up, "OPENROUTER_API_KEY_1=a1", "OPENROUTER_API_KEY_2=a2")

	w, body := postChat(t, h, `{"message":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", w.Code, body)
	}
	if body["reply"] != "Hi there" {
		t.Errorf("reply = %v", body["reply"])
	}
	if w.Header().Get(HeaderProvider) != "OpenRouter" || w.Header().Get(HeaderSource) != "OPENROUTER_API_KEY_2" {
		t.Errorf("headers = %v", w.Header())
	}
	if len(up.calls) != 2 {
		t.Errorf("calls = %v", up.calls)
	}
}

func TestChat_MessageRequired(t *testing.T) {
	up := &fakeUpstream{}
	h := testRouter(t, chatgw.Config{}, up, "OPENROUTER_API_KEY=a")

	for _, body := range []string{`{}`, `{"message":""}`, `{"message":"  "}`} {
		w, out := postChat(t, h, body)
		if w.Code != http.StatusBadRequest || out["error"] != "Message required" {
			t.Errorf("%s: status = %d, body = %v", body, w.Code, out)
		}
	}
	if len(up.calls) != 0 {
		t.Errorf("upstream called: %v", up.calls)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	h := testRouter(t, chatgw.Config{}, &fakeUpstream{})
	w, out := postChat(t, h, `{not json`)
	if w.Code != http.StatusBadRequest || out["error"] != "Invalid request body" {
		t.Errorf("status = %d, body = %v", w.Code, out)
	}
}

func TestChat_NoCredentials(t *testing.T) {
	h := testRouter(t, chatgw.Config{}, &fakeUpstream{}, "HOME=/root")
	w, out := postChat(t, h, `{"message":"hello","model":"openai/gpt-oss-120b:free"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if out["error"] != "No valid API keys found for this model config." {
		t.Errorf("error = %v", out["error"])
	}
	details, _ := out["details"].(string)
	if !strings.Contains(details, "OPENROUTER_API_KEY") || !strings.Contains(details, "ROUTEWAY_API_KEY") {
		t.Errorf("details = %q", details)
	}
}

func TestChat_AllProvidersFailed(t *testing.T) {
	up := &fakeUpstream{}
	h := testRouter(t, chatgw.Config{}, up, "ROUTEWAY_API_KEY=b1", "ROUTEWAY_API_KEY_2=b2", "ROUTEWAY_API_KEY_3=b3")

	w, out := postChat(t, h, `{"message":"hello","model":"meta-llama/llama-3.3-70b-instruct:free"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if out["error"] != "All API providers failed." || out["details"] != "401 - invalid key" {
		t.Errorf("body = %v", out)
	}
	if out["chainLength"] != float64(3) || len(up.calls) != 3 {
		t.Errorf("chainLength = %v, calls = %v", out["chainLength"], up.calls)
	}
	if out["note"] == "" {
		t.Error("missing note")
	}
}

func TestChat_GuardrailRejection(t *testing.T) {
	cfg := chatgw.Config{Plugins: []chatgw.PluginConfig{{
		Name:    "max-length",
		Enabled: true,
		Config:  map[string]interface{}{"max_input_length": 5},
	}}}
	up := &fakeUpstream{}
	h := testRouter(t, cfg, up, "ROUTEWAY_API_KEY=b")

	w, out := postChat(t, h, `{"message":"this is far too long","model":"x"}`)
	if w.Code != http.StatusBadRequest || out["error"] != "Message rejected" {
		t.Errorf("status = %d, body = %v", w.Code, out)
	}
	if len(up.calls) != 0 {
		t.Error("rejected message reached upstream")
	}
}

func TestChat_LocalReply(t *testing.T) {
	cfg := chatgw.Config{Plugins: []chatgw.PluginConfig{{Name: "local-responder", Enabled: true}}}
	h := testRouter(t, cfg, &fakeUpstream{})

	w, out := postChat(t, h, `{"message":"What are your store hours?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", w.Code, out)
	}
	if w.Header().Get(HeaderSource) != "local-responder" || w.Header().Get(HeaderProvider) != "" {
		t.Errorf("headers = %v", w.Header())
	}
}

func TestChat_MethodNotAllowed(t *testing.T) {
	h := testRouter(t, chatgw.Config{}, &fakeUpstream{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h := testRouter(t, chatgw.Config{}, &fakeUpstream{}, "ROUTEWAY_API_KEY=b", "OPENROUTER_API_KEY=a")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" || body["credentials"] != float64(2) {
		t.Errorf("body = %v", body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestModels(t *testing.T) {
	h := testRouter(t, chatgw.Config{}, &fakeUpstream{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Default string      `json:"default"`
		Data    []modelInfo `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Default != chatgw.DefaultModel || len(body.Data) == 0 {
		t.Fatalf("body = %+v", body)
	}
	rules := map[string]string{}
	for _, m := range body.Data {
		rules[m.ID] = m.Rule + ":" + strings.Join(m.Providers, ",")
	}
	if got := rules["openai/gpt-oss-120b:free"]; got != "hybrid:OpenRouter,Routeway" {
		t.Errorf("120b = %q", got)
	}
	if got := rules["openai/gpt-oss-20b:free"]; got != "openrouter:OpenRouter" {
		t.Errorf("20b = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testRouter(t, chatgw.Config{}, &fakeUpstream{})
	postChat(t, h, `{"message":""}`)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "chatgw_requests_total") {
		t.Error("metrics output missing chatgw_requests_total")
	}
}

func TestCORS(t *testing.T) {
	h := testRouter(t, chatgw.Config{CORSOrigins: []string{"https://shop.example"}}, &fakeUpstream{})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://shop.example" {
		t.Errorf("status = %d, headers = %v", w.Code, w.Header())
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin allowed")
	}

	open := corsMiddleware("*")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	w = httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("wildcard not applied")
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{"PORT": "4000"}
	cfg, err := loadConfig("", func(k string) string { return env[k] })
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":4000" || cfg.DefaultModel != chatgw.DefaultModel {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := loadConfig("/nonexistent/config.yaml", func(string) string { return "" }); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestChat_WhitespaceMessageWithLocalResponder(t *testing.T) {
	cfg := chatgw.Config{Plugins: []chatgw.PluginConfig{{Name: "local-responder", Enabled: true}}}
	w, out := postChat(t, testRouter(t, cfg, &fakeUpstream{}), `{"message":"   "}`)
	if w.Code != http.StatusBadRequest || out["error"] != "Message required" {
		t.Errorf("status = %d, body = %v", w.Code, out)
	}
}
