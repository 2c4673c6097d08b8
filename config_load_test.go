package chatgw

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_JSON(t *testing.T) {
	data := `{
		"listen": ":8080",
		"default_model": "openai/gpt-oss-120b:free",
		"upstream_timeout_seconds": 30,
		"cors_origins": ["https://shop.example"],
		"plugins": [
			{"name": "max-length", "enabled": true, "config": {"max_input_length": 500}}
		]
	}`
	path := writeTempFile(t, "config.json", data)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != ":8080" || cfg.DefaultModel != "openai/gpt-oss-120b:free" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.UpstreamTimeout() != 30*time.Second {
		t.Errorf("UpstreamTimeout() = %v", cfg.UpstreamTimeout())
	}
	if len(cfg.Plugins) != 1 || cfg.Plugins[0].Config["max_input_length"] != float64(500) {
		t.Errorf("plugins = %+v", cfg.Plugins)
	}
	if cfg.SystemPrompt != "" {
		t.Error("LoadConfig must not apply defaults")
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	data := `
listen: ":9000"
app_url: https://shop.example
app_title: Evora Electronics
plugins:
  - name: local-responder
    enabled: true
    config:
      generic_replies: false
      rules:
        - keywords: [black friday]
          reply: Black Friday deals start at midnight.
  - name: request-logger
    stage: after_request
    enabled: true
`
	path := writeTempFile(t, "config.yaml", data)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppTitle != "Evora Electronics" || len(cfg.Plugins) != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if err := ValidateConfig(*cfg); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}
}

func TestLoadConfig_EmptyYAML(t *testing.T) {
	path := writeTempFile(t, "empty.yml", "")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := cfg.WithDefaults(); d.Listen != DefaultListen {
		t.Errorf("defaults not applied: %+v", d)
	}
}

func TestLoadConfig_NonExistentFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for non-existent file")
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, "bad.json", `{invalid`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "config.toml", `listen = ":1"`)
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported config file extension") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadConfig_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"unknown key":       `{"strategy": "fallback"}`,
		"wrong type":        `{"listen": 3000}`,
		"timeout too large": `{"upstream_timeout_seconds": 601}`,
		"bad stage":         `{"plugins": [{"name": "word-filter", "stage": "later"}]}`,
		"plugin no name":    `{"plugins": [{"enabled": true}]}`,
		"top level array":   `[]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeTempFile(t, "config.json", data)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("expected schema error")
			}
			if !strings.Contains(err.Error(), "invalid config") {
				t.Errorf("err = %v, want invalid config", err)
			}
		})
	}
}

func TestValidateConfig_Default(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateConfig(Config{}); err != nil {
		t.Fatalf("zero config should be valid: %v", err)
	}
}

func TestValidateConfig_UnknownPlugin(t *testing.T) {
	cfg := Config{Plugins: []PluginConfig{{Name: "semantic-cache", Enabled: true}}}
	err := ValidateConfig(cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown plugin") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateConfig_BadStage(t *testing.T) {
	cfg := Config{Plugins: []PluginConfig{{Name: "word-filter", Stage: "sometime"}}}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected stage error")
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{DefaultModel: "   ", UpstreamTimeoutSeconds: -1}.WithDefaults()
	if cfg.Listen != DefaultListen || cfg.DefaultModel != DefaultModel || cfg.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.UpstreamTimeoutSeconds != DefaultUpstreamTimeoutSeconds {
		t.Errorf("timeout = %d", cfg.UpstreamTimeoutSeconds)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}

	kept := Config{Listen: ":1", SystemPrompt: "custom"}.WithDefaults()
	if kept.Listen != ":1" || kept.SystemPrompt != "custom" {
		t.Errorf("explicit values overwritten: %+v", kept)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":         "8081",
		"CORS_ORIGINS": " https://a.example, ,https://b.example ",
	}
	cfg := DefaultConfig().ApplyEnv(func(k string) string { return env[k] })
	if cfg.Listen != ":8081" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.example|https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}

	same := DefaultConfig().ApplyEnv(func(string) string { return "" })
	if same.Listen != DefaultListen {
		t.Errorf("Listen changed without PORT: %q", same.Listen)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestValidateConfig_NumericBounds(t *testing.T) {
	if err := ValidateConfig(Config{UpstreamTimeoutSeconds: 600}); err != nil {
		t.Errorf("timeout 600 should be valid: %v", err)
	}
	err := ValidateConfig(Config{UpstreamTimeoutSeconds: 601})
	if err == nil || !strings.Contains(err.Error(), "/upstream_timeout_seconds") {
		t.Errorf("err = %v, want location of the timeout field", err)
	}

	path := writeTempFile(t, "config.json", `{"upstream_timeout_seconds": 12.5}`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("fractional timeout should fail the integer check")
	}
}
