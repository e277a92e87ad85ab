package providers

import (
	"fmt"
	"sync"

	"github.com/advisorhub/advisorhub/agent-control/internal/catalog"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// Registry holds one adapter per provider identifier. Adding a provider
// means registering a new Adapter implementation, not editing a switch.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.Provider]Adapter
}

// NewRegistry returns a registry pre-populated with the built-in adapters.
// Google and custom providers get the generic pass-through adapter: an open
// tool set and no provider ranges beyond the generic contract bounds.
func NewRegistry(cat *catalog.Catalog) *Registry {
	r := &Registry{adapters: make(map[models.Provider]Adapter)}
	r.Register(NewClaudeAdapter(cat))
	r.Register(NewAnthropicAdapter(cat))
	r.Register(NewOpenAIAdapter(cat))
	r.Register(NewOllamaAdapter(cat))
	r.Register(newGeneric(models.ProviderGoogle, cat))
	r.Register(newGeneric(models.ProviderCustom, cat))
	return r
}

// Register adds or replaces the adapter for its provider.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Provider()] = a
}

// Resolve returns the adapter for a provider.
func (r *Registry) Resolve(p models.Provider) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", p)
	}
	return a, nil
}

// newGeneric builds a permissive adapter for providers without their own
// tables: tools are an open set and only the shared config keys map through.
func newGeneric(p models.Provider, cat *catalog.Catalog) Adapter {
	return newAdapter(p, cat,
		nil,
		map[string]string{
			"temperature": "temperature",
			"maxTokens":   "max_tokens",
			"topP":        "top_p",
		},
		nil,
	)
}
