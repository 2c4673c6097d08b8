package plugin

import (
	"context"
	"fmt"

	"github.com/blueember/storefront-chat/internal/logging"
)

// Manager holds the configured plugins per stage. It is filled at startup
// and read-only afterwards.
type Manager struct {
	before []Plugin
	after  []Plugin
	onErr  []Plugin
}

// NewManager creates a new plugin manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register registers a plugin at the given stage.
func (m *Manager) Register(stage Stage, p Plugin) error {
	switch stage {
	case StageBeforeRequest:
		m.before = append(m.before, p)
	case StageAfterRequest:
		m.after = append(m.after, p)
	case StageOnError:
		m.onErr = append(m.onErr, p)
	default:
		return fmt.Errorf("unknown plugin stage: %s", stage)
	}
	logging.Logger.Info("plugin registered", "name", p.Name(), "type", p.Type(), "stage", stage)
	return nil
}

// RunBefore executes the before-request plugins in order. A rejection is
// returned as *RejectError. Execution stops early when a plugin sets Skip.
func (m *Manager) RunBefore(ctx context.Context, pctx *Context) error {
	for _, p := range m.before {
		if err := p.Execute(ctx, pctx); err != nil {
			return fmt.Errorf("plugin %s failed: %w", p.Name(), err)
		}
		if pctx.Reject {
			return &RejectError{Plugin: p.Name(), Reason: pctx.Reason}
		}
		if pctx.Skip {
			if pctx.Source == "" {
				pctx.Source = p.Name()
			}
			break
		}
	}
	return nil
}

// RunAfter executes the after-request plugins. Plugin errors are logged,
// never returned.
func (m *Manager) RunAfter(ctx context.Context, pctx *Context) {
	for _, p := range m.after {
		if err := p.Execute(ctx, pctx); err != nil {
			logging.FromContext(ctx).Warn("after-request plugin error", "plugin", p.Name(), "error", err)
		}
	}
}

// RunOnError executes the on-error plugins.
func (m *Manager) RunOnError(ctx context.Context, pctx *Context) {
	for _, p := range m.onErr {
		if err := p.Execute(ctx, pctx); err != nil {
			logging.FromContext(ctx).Warn("on-error plugin error", "plugin", p.Name(), "error", err)
		}
	}
}

// HasPlugins returns true if any plugins are registered.
func (m *Manager) HasPlugins() bool {
	return len(m.before)+len(m.after)+len(m.onErr) > 0
}

// Names returns the registered plugin names per stage.
func (m *Manager) Names() map[Stage][]string {
	names := func(ps []Plugin) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name()
		}
		return out
	}
	return map[Stage][]string{
		StageBeforeRequest: names(m.before),
		StageAfterRequest:  names(m.after),
		StageOnError:       names(m.onErr),
	}
}
