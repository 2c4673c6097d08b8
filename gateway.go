// Package chatgw is the storefront chat gateway: it answers a user's chat
// message by routing it to one of several OpenAI-compatible upstream
// providers, failing over across every API key found in the environment.
//
// Create a Gateway with New, load plugins from config with LoadPlugins, and
// answer messages with Chat. Credentials are discovered on every call, so
// keys added to or removed from the environment take effect immediately.
package chatgw

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/blueember/storefront-chat/internal/logging"
	"github.com/blueember/storefront-chat/internal/metrics"
	"github.com/blueember/storefront-chat/internal/strategies"
	"github.com/blueember/storefront-chat/models"
	"github.com/blueember/storefront-chat/plugin"
	"github.com/blueember/storefront-chat/providers"
)

// EventHookFunc is called asynchronously after a chat request completes
// or fails.
type EventHookFunc func(ctx context.Context, subject string, data map[string]interface{})

// Event subjects passed to hooks.
const (
	SubjectChatCompleted = "chat.request.completed"
	SubjectChatFailed    = "chat.request.failed"
)

// ChatRequest is an inbound chat message.
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// ChatReply is the answer to a ChatRequest.
type ChatReply struct {
	Reply string
	Model string
	// Provider and Source identify the credential that answered, or the
	// plugin for local replies (Provider is then empty).
	Provider providers.Kind
	Source   string
	Attempts int
	Local    bool
}

// Gateway routes chat messages to upstream providers.
type Gateway struct {
	config    Config
	environ   func() []string
	specs     []providers.Spec
	router    *strategies.Conditional
	completer providers.Completer
	delay     time.Duration
	sleep     strategies.SleepFunc
	catalog   models.Catalog
	plugins   *plugin.Manager

	mu    sync.RWMutex
	hooks []EventHookFunc
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithEnviron replaces os.Environ as the credential source.
func WithEnviron(fn func() []string) Option {
	return func(g *Gateway) { g.environ = fn }
}

// WithSpecs replaces the provider table.
func WithSpecs(specs ...providers.Spec) Option {
	return func(g *Gateway) { g.specs = specs }
}

// WithCompleter replaces the upstream transport.
func WithCompleter(c providers.Completer) Option {
	return func(g *Gateway) { g.completer = c }
}

// WithRules replaces the routing table.
func WithRules(rules ...strategies.Rule) Option {
	return func(g *Gateway) { g.router = strategies.NewConditional(rules...) }
}

// WithAttemptDelay sets the pause between failover attempts.
func WithAttemptDelay(d time.Duration) Option {
	return func(g *Gateway) { g.delay = d }
}

// WithSleep replaces the wait used between failover attempts.
func WithSleep(fn strategies.SleepFunc) Option {
	return func(g *Gateway) { g.sleep = fn }
}

// WithCatalog replaces the model catalog.
func WithCatalog(c models.Catalog) Option {
	return func(g *Gateway) { g.catalog = c }
}

// New creates a Gateway. Zero-valued config fields get their defaults.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	cfg = cfg.WithDefaults()
	if cfg.UpstreamTimeoutSeconds > 600 {
		return nil, fmt.Errorf("upstream_timeout_seconds %d exceeds 600", cfg.UpstreamTimeoutSeconds)
	}
	g := &Gateway{
		config:  cfg,
		environ: os.Environ,
		specs:   providers.DefaultSpecs,
		router:  strategies.DefaultConditional(),
		delay:   strategies.DefaultAttemptDelay,
		sleep:   strategies.Sleep,
		plugins: plugin.NewManager(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.completer == nil {
		g.completer = providers.NewOpenAICompatible(
			providers.WithTimeout(cfg.UpstreamTimeout()),
			providers.WithAttribution(cfg.AppURL, cfg.AppTitle),
		)
	}
	if len(g.catalog.Models) == 0 {
		g.catalog = models.Load()
	}
	return g, nil
}

// Config returns the effective configuration.
func (g *Gateway) Config() Config { return g.config }

// Catalog returns the model catalog.
func (g *Gateway) Catalog() models.Catalog { return g.catalog }

// Rules returns the routing table.
func (g *Gateway) Rules() []strategies.Rule { return g.router.Rules() }

// Specs returns the provider table.
func (g *Gateway) Specs() []providers.Spec {
	return append([]providers.Spec(nil), g.specs...)
}

// Credentials discovers the credentials currently present in the
// environment.
func (g *Gateway) Credentials() []providers.Credential {
	return providers.DiscoverCredentialsWith(g.specs, g.environ())
}

// Route returns the rule and chain a message for model would use right now.
func (g *Gateway) Route(model string) (strategies.Rule, []providers.Credential) {
	return g.router.Select(g.resolveModel(model), g.Credentials())
}

// RegisterPlugin registers a plugin at the given lifecycle stage.
func (g *Gateway) RegisterPlugin(stage plugin.Stage, p plugin.Plugin) error {
	return g.plugins.Register(stage, p)
}

// Plugins returns the registered plugin names per stage.
func (g *Gateway) Plugins() map[plugin.Stage][]string { return g.plugins.Names() }

// LoadPlugins initializes and registers the enabled plugins from the
// gateway configuration.
func (g *Gateway) LoadPlugins() error {
	for _, pc := range g.config.Plugins {
		if !pc.Enabled {
			continue
		}
		factory, ok := plugin.GetFactory(pc.Name)
		if !ok {
			return fmt.Errorf("unknown plugin: %s", pc.Name)
		}
		p := factory()
		if err := p.Init(pc.Config); err != nil {
			return fmt.Errorf("plugin %s init failed: %w", pc.Name, err)
		}
		if err := g.RegisterPlugin(plugin.Stage(pc.pluginStage()), p); err != nil {
			return fmt.Errorf("plugin %s register failed: %w", pc.Name, err)
		}
	}
	return nil
}

// AddHook registers a function called after every completed or failed
// chat request.
func (g *Gateway) AddHook(fn EventHookFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, fn)
}

func (g *Gateway) resolveModel(model string) string {
	if strings.TrimSpace(model) == "" {
		return g.config.DefaultModel
	}
	return model
}

// Chat answers one message.
//
// Errors: ErrMessageRequired for a blank message, *plugin.RejectError when
// a guardrail refuses it, *NoCredentialsError when the routing rule has no
// usable key, and *FailoverError when every key failed.
func (g *Gateway) Chat(ctx context.Context, in ChatRequest) (*ChatReply, error) {
	start := time.Now()
	log := logging.FromContext(ctx)

	if strings.TrimSpace(in.Message) == "" {
		g.observe(metrics.OutcomeBadRequest, start)
		return nil, ErrMessageRequired
	}

	model := g.resolveModel(in.Model)
	req := providers.NewChatRequest(model, g.config.SystemPrompt, in.Message)
	pctx := plugin.NewContext(&req)

	if g.plugins.HasPlugins() {
		if err := g.plugins.RunBefore(ctx, pctx); err != nil {
			var rej *plugin.RejectError
			if errors.As(err, &rej) {
				g.observe(metrics.OutcomeRejected, start)
				log.Info("chat rejected", "model", model, "plugin", rej.Plugin, "reason", rej.Reason)
				return nil, err
			}
			return nil, g.fail(ctx, pctx, start, metrics.OutcomeError, err)
		}
		if pctx.Answered() {
			g.plugins.RunAfter(ctx, pctx)
			g.observe(metrics.OutcomeLocal, start)
			log.Info("chat answered locally", "model", model, "source", pctx.Source)
			reply := &ChatReply{Reply: pctx.Reply, Model: model, Source: pctx.Source, Local: true}
			g.publish(ctx, SubjectChatCompleted, reply, start)
			return reply, nil
		}
	}

	creds := g.Credentials()
	g.recordCredentials(creds)

	rule, chain := g.router.Select(model, creds)
	metrics.ChainLength.WithLabelValues(rule.Name).Observe(float64(len(chain)))
	log.Debug("chain selected", "model", model, "rule", rule.Name, "chain_length", len(chain))

	if len(chain) == 0 {
		err := &NoCredentialsError{
			Model:    model,
			Rule:     rule.Name,
			Prefixes: providers.Prefixes(g.specs, rule.Providers...),
		}
		return nil, g.fail(ctx, pctx, start, metrics.OutcomeNoCredentials, err)
	}

	failover := strategies.NewFailover(g.completer,
		strategies.WithDelay(g.delay),
		strategies.WithSleep(g.sleep),
		strategies.WithObserver(func(_ context.Context, a strategies.Attempt) {
			metrics.UpstreamAttempts.WithLabelValues(string(a.Credential.Provider), a.Outcome()).Inc()
		}),
	)
	res, err := failover.Execute(ctx, req, chain)
	if err != nil {
		outcome := metrics.OutcomeExhausted
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCancelled
		}
		ferr := &FailoverError{Model: model, Rule: rule.Name, ChainLength: len(chain), Err: err}
		return nil, g.fail(ctx, pctx, start, outcome, ferr)
	}

	pctx.Reply = res.Reply
	pctx.Source = res.Credential.SourceID
	g.plugins.RunAfter(ctx, pctx)
	g.observe(metrics.OutcomeReply, start)

	log.Info("chat completed",
		"model", model,
		"rule", rule.Name,
		"credential", res.Credential,
		"attempts", res.Attempts,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	reply := &ChatReply{
		Reply:    res.Reply,
		Model:    model,
		Provider: res.Credential.Provider,
		Source:   res.Credential.SourceID,
		Attempts: res.Attempts,
	}
	g.publish(ctx, SubjectChatCompleted, reply, start)
	return reply, nil
}

func (g *Gateway) fail(ctx context.Context, pctx *plugin.Context, start time.Time, outcome string, err error) error {
	pctx.Error = err
	g.plugins.RunOnError(ctx, pctx)
	g.observe(outcome, start)
	logging.FromContext(ctx).Error("chat failed",
		"model", pctx.Request.Model,
		"outcome", outcome,
		"latency_ms", time.Since(start).Milliseconds(),
		"error", err.Error(),
	)
	g.publishEvent(ctx, SubjectChatFailed, map[string]interface{}{
		"trace_id":   logging.TraceIDFromContext(ctx),
		"model":      pctx.Request.Model,
		"outcome":    outcome,
		"error":      err.Error(),
		"latency_ms": time.Since(start).Milliseconds(),
		"timestamp":  time.Now(),
	})
	return err
}

func (g *Gateway) observe(outcome string, start time.Time) {
	metrics.RequestsTotal.WithLabelValues(outcome).Inc()
	metrics.RequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (g *Gateway) recordCredentials(creds []providers.Credential) {
	reg := providers.NewRegistry(creds)
	for _, s := range g.specs {
		metrics.Credentials.WithLabelValues(string(s.Kind)).Set(float64(len(reg.ByProvider(s.Kind))))
	}
}

func (g *Gateway) publish(ctx context.Context, subject string, r *ChatReply, start time.Time) {
	g.publishEvent(ctx, subject, map[string]interface{}{
		"trace_id":   logging.TraceIDFromContext(ctx),
		"model":      r.Model,
		"provider":   string(r.Provider),
		"source":     r.Source,
		"attempts":   r.Attempts,
		"local":      r.Local,
		"latency_ms": time.Since(start).Milliseconds(),
		"timestamp":  time.Now(),
	})
}

// publishEvent calls all registered hooks asynchronously.
func (g *Gateway) publishEvent(ctx context.Context, subject string, data map[string]interface{}) {
	g.mu.RLock()
	hooks := make([]EventHookFunc, len(g.hooks))
	copy(hooks, g.hooks)
	g.mu.RUnlock()

	for _, h := range hooks {
		go h(ctx, subject, data)
	}
}
