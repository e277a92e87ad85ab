// Package catalog maintains the model identifier tables used by the
// provider adapters.
//
// Agent files refer to models by short name ("sonnet", "gpt-4o") while the
// canonical contract stores the provider's dated identifier. The catalog
// maps in both directions and is idempotent: an identifier that is already
// canonical passes through unchanged, and an unknown identifier is returned
// as-is rather than rejected, so custom or freshly-released models keep
// working without a catalog update.
package catalog

import (
	"sync"

	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// Catalog is a thread-safe short-name ⇄ canonical-ID lookup, keyed by
// provider.
type Catalog struct {
	mu        sync.RWMutex
	canonical map[models.Provider]map[string]string // short name → canonical id
	short     map[models.Provider]map[string]string // canonical id → short name
}

// New returns a catalog seeded with the built-in model tables.
func New() *Catalog {
	c := &Catalog{
		canonical: make(map[models.Provider]map[string]string),
		short:     make(map[models.Provider]map[string]string),
	}
	c.loadBuiltinDefaults()
	return c
}

// Register adds or replaces one alias pair for a provider.
func (c *Catalog) Register(p models.Provider, shortName, canonicalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.canonical[p] == nil {
		c.canonical[p] = make(map[string]string)
		c.short[p] = make(map[string]string)
	}
	c.canonical[p][shortName] = canonicalID
	c.short[p][canonicalID] = shortName
}

// Canonical resolves a short model name to the provider's canonical ID.
// Already-canonical and unknown identifiers pass through unchanged.
func (c *Catalog) Canonical(p models.Provider, model string) string {
	if model == "" {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := c.canonical[p][model]; ok {
		return id
	}
	return model
}

// ShortName resolves a canonical ID back to its short name for writing into
// agent files. Unknown identifiers pass through unchanged.
func (c *Catalog) ShortName(p models.Provider, canonicalID string) string {
	if canonicalID == "" {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name, ok := c.short[p][canonicalID]; ok {
		return name
	}
	return canonicalID
}

// loadBuiltinDefaults seeds the tables with the models each adapter ships
// support for. Anthropic shares Claude's table since the file format is the
// same; only the provider label differs.
func (c *Catalog) loadBuiltinDefaults() {
	claude := map[string]string{
		"haiku":  "claude-3-5-haiku-20241022",
		"sonnet": "claude-3-7-sonnet-20250219",
		"opus":   "claude-3-opus-20240229",
	}
	for short, id := range claude {
		c.Register(models.ProviderClaude, short, id)
		c.Register(models.ProviderAnthropic, short, id)
	}

	for short, id := range map[string]string{
		"gpt-4o":      "gpt-4o-2024-08-06",
		"gpt-4o-mini": "gpt-4o-mini-2024-07-18",
		"gpt-4.1":     "gpt-4.1-2025-04-14",
	} {
		c.Register(models.ProviderOpenAI, short, id)
	}

	for short, id := range map[string]string{
		"llama3":  "llama3:8b",
		"mistral": "mistral:7b",
		"qwen":    "qwen2.5:7b",
	} {
		c.Register(models.ProviderOllama, short, id)
	}
}
