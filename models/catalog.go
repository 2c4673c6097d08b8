// Package models provides the catalog of chat models the storefront offers
// in its model picker.
//
// The catalog is embedded in the binary. Operators may point
// CHATGW_MODEL_CATALOG_URL at a JSON document of the same shape; it is
// fetched once at startup and the embedded copy is used whenever the remote
// one is unavailable or invalid.
package models

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

//go:embed catalog.json
var bundledCatalog []byte

// CatalogURLEnv is the env var operators set to override the catalog source.
const CatalogURLEnv = "CHATGW_MODEL_CATALOG_URL"

// Catalog is the ordered list of selectable models.
type Catalog struct {
	DefaultModel string  `json:"default"`
	Models       []Model `json:"models"`
}

// Model holds picker metadata for a single model. ID is sent upstream
// verbatim and also drives routing.
type Model struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	Family        string    `json:"family"`
	ContextWindow int       `json:"context_window"`
	Free          bool      `json:"free"`
	Lifecycle     Lifecycle `json:"lifecycle"`
}

// Lifecycle describes a model's release and deprecation state.
type Lifecycle struct {
	Status    string  `json:"status"` // preview | ga | deprecated
	Successor *string `json:"successor,omitempty"`
}

// IsDeprecated returns true when the model's lifecycle status is deprecated.
func (m Model) IsDeprecated() bool {
	return m.Lifecycle.Status == "deprecated"
}

// Bundled returns the catalog shipped with the binary.
func Bundled() Catalog {
	c, err := parse(bundledCatalog)
	if err != nil {
		panic(fmt.Sprintf("models: invalid embedded catalog: %v", err))
	}
	return c
}

// Load returns the remote catalog named by CatalogURLEnv when it is set and
// valid, and the bundled catalog otherwise. It never fails.
func Load() Catalog {
	if url := os.Getenv(CatalogURLEnv); url != "" {
		if data, err := fetchRemote(url); err == nil {
			if c, err := parse(data); err == nil {
				return c
			}
		}
	}
	return Bundled()
}

func fetchRemote(url string) ([]byte, error) {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("catalog parse: %w", err)
	}
	if len(c.Models) == 0 {
		return Catalog{}, errors.New("catalog parse: no models")
	}
	seen := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return Catalog{}, fmt.Errorf("catalog parse: models[%d] has no id", i)
		}
		if seen[m.ID] {
			return Catalog{}, fmt.Errorf("catalog parse: duplicate model %q", m.ID)
		}
		seen[m.ID] = true
	}
	if !seen[c.DefaultModel] {
		return Catalog{}, fmt.Errorf("catalog parse: default model %q not in catalog", c.DefaultModel)
	}
	return c, nil
}

// Get looks up a model by ID.
func (c Catalog) Get(id string) (Model, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Default returns the default model entry.
func (c Catalog) Default() Model {
	m, _ := c.Get(c.DefaultModel)
	return m
}
