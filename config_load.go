package chatgw

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/blueember/storefront-chat/plugin"
)

//go:embed config.schema.json
var configSchemaJSON string

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("config.schema.json", configSchemaJSON)
})

// LoadConfig reads and parses a config file from the given path.
// Supported formats: JSON (.json), YAML (.yaml, .yml). The document is
// checked against the config schema before decoding, so unknown keys and
// wrongly typed values are reported with their location.
//
// The returned Config has no defaults applied; see Config.WithDefaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw interface{}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// ValidateConfig validates a Config for correctness: the schema constraints
// plus plugin names and stages.
func ValidateConfig(cfg Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	for i, pc := range cfg.Plugins {
		if _, ok := plugin.GetFactory(pc.Name); !ok {
			return fmt.Errorf("plugins[%d]: unknown plugin %q (available: %s)",
				i, pc.Name, strings.Join(plugin.RegisteredPlugins(), ", "))
		}
		if !plugin.ValidStage(plugin.Stage(pc.pluginStage())) {
			return fmt.Errorf("plugins[%d]: unknown stage %q", i, pc.Stage)
		}
	}
	return nil
}

func validateDocument(doc []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("invalid config: %s", describeValidation(ve))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// describeValidation flattens a validation error tree into its leaf
// messages, each prefixed with the offending location.
func describeValidation(ve *jsonschema.ValidationError) string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return loc + ": " + ve.Message
	}
	parts := make([]string, 0, len(ve.Causes))
	for _, c := range ve.Causes {
		parts = append(parts, describeValidation(c))
	}
	return strings.Join(parts, "; ")
}
