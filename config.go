package chatgw

import (
	"strings"
	"time"
)

// Defaults applied to zero-valued Config fields.
const (
	DefaultListen                 = ":3000"
	DefaultModel                  = "openai/gpt-oss-20b:free"
	DefaultSystemPrompt           = "You are Evora AI. Helpful and concise."
	DefaultUpstreamTimeoutSeconds = 60
)

// Config holds the configuration for the chat gateway. Upstream credentials
// are never part of it; they come from the environment on every request.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
	// DefaultModel is used when a request names no model.
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	// SystemPrompt is sent as the first message of every upstream request.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	// UpstreamTimeoutSeconds bounds each single upstream call.
	UpstreamTimeoutSeconds int `json:"upstream_timeout_seconds,omitempty" yaml:"upstream_timeout_seconds,omitempty"`
	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
	// AppURL and AppTitle are sent upstream as HTTP-Referer and X-Title.
	AppURL   string `json:"app_url,omitempty" yaml:"app_url,omitempty"`
	AppTitle string `json:"app_title,omitempty" yaml:"app_title,omitempty"`
	// Plugins configuration (optional).
	Plugins []PluginConfig `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// PluginConfig holds plugin configuration.
type PluginConfig struct {
	Name string `json:"name" yaml:"name"`
	// Stage defaults to before_request.
	Stage   string                 `json:"stage,omitempty" yaml:"stage,omitempty"`
	Enabled bool                   `json:"enabled" yaml:"enabled"`
	Config  map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Listen:                 DefaultListen,
		DefaultModel:           DefaultModel,
		SystemPrompt:           DefaultSystemPrompt,
		UpstreamTimeoutSeconds: DefaultUpstreamTimeoutSeconds,
		CORSOrigins:            []string{"*"},
	}
}

// WithDefaults returns a copy of c with zero-valued fields filled in.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		c.DefaultModel = d.DefaultModel
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = d.SystemPrompt
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		c.UpstreamTimeoutSeconds = d.UpstreamTimeoutSeconds
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = d.CORSOrigins
	}
	return c
}

// ApplyEnv overrides fields from PORT and CORS_ORIGINS using getenv.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.Listen = ":" + port
	}
	if origins := getenv("CORS_ORIGINS"); strings.TrimSpace(origins) != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		c.CORSOrigins = list
	}
	return c
}

// UpstreamTimeout returns the per-call upstream timeout.
func (c Config) UpstreamTimeout() time.Duration {
	if c.UpstreamTimeoutSeconds <= 0 {
		return DefaultUpstreamTimeoutSeconds * time.Second
	}
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// pluginStage returns the configured stage, defaulting to before_request.
func (p PluginConfig) pluginStage() string {
	if p.Stage == "" {
		return "before_request"
	}
	return p.Stage
}
