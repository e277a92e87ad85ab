// Package providers translates between the canonical AgentContract and
// provider-native agent shapes, and enforces the constraints the generic
// contract model cannot express: per-provider tool vocabularies and config
// value ranges.
//
// Adapters are pure functions over static lookup tables. They never perform
// I/O, which keeps them trivially testable; everything filesystem- or
// store-shaped lives in the sync service.
package providers

import (
	"sort"

	"github.com/advisorhub/advisorhub/agent-control/internal/catalog"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// NativeAgent is the provider-native representation of one agent as it
// appears on disk: a flat front-matter field map plus the Markdown body.
// The identity keys (name, slug, description, agent_type, model, tools,
// status, owner) are shared across providers because the file format owns
// them; provider-specific config travels as extra flat keys.
type NativeAgent struct {
	Fields map[string]any
	Body   string
}

// Adapter maps contracts to and from one provider's native shape and
// validates the provider's own constraints.
type Adapter interface {
	// Provider returns the identifier this adapter is registered under.
	Provider() models.Provider

	// ToNative renders a contract into the provider-native shape. The
	// mapping is pure; it does not validate (see ValidateTools and
	// ValidateConfig).
	ToNative(c *models.AgentContract) (*NativeAgent, error)

	// FromNative builds a partial contract from a native shape. Optional
	// fields may be absent; missing slug or name fails with
	// *IncompleteDataError.
	FromNative(n *NativeAgent) (*models.AgentContract, error)

	// ValidateTools returns one *InvalidToolError per tool outside the
	// provider's vocabulary. Errors are collected, never short-circuited.
	ValidateTools(tools []string) []error

	// ValidateConfig returns one *RangeError per out-of-range config value.
	ValidateConfig(config map[string]any) []error
}

// adapter is the shared implementation. Each provider is a set of static
// tables driving the same mapping logic.
type adapter struct {
	provider models.Provider
	cat      *catalog.Catalog

	// tools is the provider's tool vocabulary. nil means an open set
	// (custom providers); an empty map means the provider supports no
	// tools at all.
	tools map[string]bool

	// configKeys maps canonical config keys (temperature, maxTokens, topP,
	// …) to the provider's native field names, in both directions.
	configKeys map[string]string
	nativeKeys map[string]string

	// ranges holds [min, max] bounds per canonical config key.
	ranges map[string][2]float64
}

func newAdapter(p models.Provider, cat *catalog.Catalog, tools []string, configKeys map[string]string, ranges map[string][2]float64) *adapter {
	a := &adapter{
		provider:   p,
		cat:        cat,
		configKeys: configKeys,
		ranges:     ranges,
		nativeKeys: make(map[string]string, len(configKeys)),
	}
	if tools != nil {
		a.tools = make(map[string]bool, len(tools))
		for _, t := range tools {
			a.tools[t] = true
		}
	}
	for canonical, native := range configKeys {
		a.nativeKeys[native] = canonical
	}
	return a
}

func (a *adapter) Provider() models.Provider { return a.provider }

func (a *adapter) ToNative(c *models.AgentContract) (*NativeAgent, error) {
	fields := map[string]any{
		"name": c.Name,
		"slug": c.Slug,
	}
	if c.Description != "" {
		fields["description"] = c.Description
	}
	if c.AgentType != "" {
		fields["agent_type"] = string(c.AgentType)
	}
	if c.ModelID != "" {
		fields["model"] = a.cat.ShortName(a.provider, c.ModelID)
	}
	if len(c.Tools) > 0 {
		tools := make([]any, len(c.Tools))
		for i, t := range c.Tools {
			tools[i] = t
		}
		fields["tools"] = tools
	}
	if c.Status != "" {
		fields["status"] = string(c.Status)
	}
	if c.Owner != "" {
		fields["owner"] = c.Owner
	}
	// Files without a provider key are read as claude; every other
	// provider must be stated so the file re-pulls through the same
	// adapter that wrote it.
	if a.provider != models.ProviderClaude {
		fields["provider"] = string(a.provider)
	}
	for canonical, native := range a.configKeys {
		if v, ok := c.Config[canonical]; ok {
			fields[native] = v
		}
	}
	return &NativeAgent{Fields: fields, Body: c.SystemPrompt}, nil
}

func (a *adapter) FromNative(n *NativeAgent) (*models.AgentContract, error) {
	c := &models.AgentContract{
		Provider:     a.provider,
		Slug:         stringField(n.Fields, "slug"),
		Name:         stringField(n.Fields, "name"),
		Description:  stringField(n.Fields, "description"),
		AgentType:    models.AgentType(stringField(n.Fields, "agent_type")),
		Status:       models.AgentStatus(stringField(n.Fields, "status")),
		Owner:        stringField(n.Fields, "owner"),
		SystemPrompt: n.Body,
	}

	var missing []string
	if c.Slug == "" {
		missing = append(missing, "slug")
	}
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, &IncompleteDataError{Provider: a.provider, Missing: missing}
	}

	if model := stringField(n.Fields, "model"); model != "" {
		c.ModelID = a.cat.Canonical(a.provider, model)
	}
	c.Tools = stringsField(n.Fields, "tools")

	for native, canonical := range a.nativeKeys {
		if v, ok := n.Fields[native]; ok {
			if c.Config == nil {
				c.Config = make(map[string]any)
			}
			c.Config[canonical] = v
		}
	}
	return c, nil
}

func (a *adapter) ValidateTools(tools []string) []error {
	if a.tools == nil {
		return nil
	}
	var errs []error
	for _, t := range tools {
		if !a.tools[t] {
			errs = append(errs, &InvalidToolError{Provider: a.provider, Tool: t})
		}
	}
	return errs
}

func (a *adapter) ValidateConfig(config map[string]any) []error {
	if len(config) == 0 {
		return nil
	}
	// Deterministic error order for reproducible SyncResults.
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		bounds, known := a.ranges[key]
		if !known {
			continue
		}
		v, numeric := asFloat(config[key])
		if !numeric {
			continue
		}
		if v < bounds[0] || v > bounds[1] {
			errs = append(errs, &RangeError{
				Provider: a.provider,
				Field:    key,
				Value:    config[key],
				Min:      bounds[0],
				Max:      bounds[1],
			})
		}
	}
	return errs
}

// ── field helpers ────────────────────────────────────────────

func stringField(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func stringsField(fields map[string]any, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	switch items := raw.(type) {
	case []string:
		return append([]string(nil), items...)
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		// single scalar tolerated as a one-element set
		return []string{items}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
