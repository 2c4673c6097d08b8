package plugin

import (
	"fmt"
	"sort"
)

// PluginFactory creates a new, unconfigured instance of a plugin.
//
//nolint:revive // exported name reads better at call sites
type PluginFactory func() Plugin

// pluginRegistry is the global registry of plugin factories. It is written
// only from init functions.
var pluginRegistry = map[string]PluginFactory{}

// RegisterFactory registers a plugin factory by name.
func RegisterFactory(name string, factory PluginFactory) {
	pluginRegistry[name] = factory
}

// GetFactory returns a plugin factory by name.
func GetFactory(name string) (PluginFactory, bool) {
	f, ok := pluginRegistry[name]
	return f, ok
}

// RegisteredPlugins returns the names of all registered plugin factories,
// sorted.
func RegisteredPlugins() []string {
	names := make([]string, 0, len(pluginRegistry))
	for name := range pluginRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringList reads a list of strings from a plugin config value. YAML and
// JSON decoding both produce []interface{}; Go callers may pass []string.
func StringList(config map[string]interface{}, key string) ([]string, error) {
	v, ok := config[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected string, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: expected a list of strings, got %T", key, v)
	}
}

// Int reads an integer from a plugin config value. JSON numbers decode as
// float64, YAML integers as int.
func Int(config map[string]interface{}, key string) (int, bool, error) {
	v, ok := config[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		if n != float64(int(n)) {
			return 0, false, fmt.Errorf("%s: expected an integer, got %v", key, n)
		}
		return int(n), true, nil
	default:
		return 0, false, fmt.Errorf("%s: expected an integer, got %T", key, v)
	}
}
