package main

import (
	"net/http"

	chatgw "github.com/blueember/storefront-chat"
	"github.com/blueember/storefront-chat/internal/strategies"
	"github.com/blueember/storefront-chat/models"
)

// modelInfo is a catalog entry annotated with where a message for it would
// be routed.
type modelInfo struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name,omitempty"`
	Family        string   `json:"family,omitempty"`
	ContextWindow int      `json:"context_window,omitempty"`
	Free          bool     `json:"free"`
	Status        string   `json:"status,omitempty"`
	Deprecated    bool     `json:"deprecated,omitempty"`
	Default       bool     `json:"default,omitempty"`
	Rule          string   `json:"rule"`
	Providers     []string `json:"providers"`
}

func annotate(router *strategies.Conditional, m models.Model, defaultID string) modelInfo {
	info := modelInfo{
		ID:            m.ID,
		DisplayName:   m.DisplayName,
		Family:        m.Family,
		ContextWindow: m.ContextWindow,
		Free:          m.Free,
		Status:        m.Lifecycle.Status,
		Deprecated:    m.IsDeprecated(),
		Default:       m.ID == defaultID,
		Providers:     []string{},
	}
	if rule, ok := router.Match(m.ID); ok {
		info.Rule = rule.Name
		for _, k := range rule.Providers {
			info.Providers = append(info.Providers, string(k))
		}
	}
	return info
}

func modelsHandler(gw *chatgw.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		router := strategies.NewConditional(gw.Rules()...)
		defaultID := gw.Config().DefaultModel
		catalog := gw.Catalog()

		data := make([]modelInfo, 0, len(catalog.Models))
		for _, m := range catalog.Models {
			data = append(data, annotate(router, m, defaultID))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"object":  "list",
			"default": defaultID,
			"data":    data,
		})
	}
}
