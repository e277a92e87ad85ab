package providers

import (
	"github.com/advisorhub/advisorhub/agent-control/internal/catalog"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// claudeTools is the tool vocabulary Claude Code agent files may reference.
var claudeTools = []string{
	"Bash", "Read", "Write", "Edit", "Grep", "Glob", "LS", "Task",
	"WebFetch", "WebSearch", "NotebookEdit", "NotebookRead", "TodoWrite",
}

// ClaudeConfig is the typed view of the open config map for Claude agents.
// Business logic reads this struct, never the raw map.
type ClaudeConfig struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// NewClaudeAdapter builds the adapter for Claude Code agent files. The
// anthropic provider shares the same shapes and tables under its own label.
func NewClaudeAdapter(cat *catalog.Catalog) Adapter {
	return newClaudeLike(models.ProviderClaude, cat)
}

// NewAnthropicAdapter is the API-flavored twin of the Claude adapter.
func NewAnthropicAdapter(cat *catalog.Catalog) Adapter {
	return newClaudeLike(models.ProviderAnthropic, cat)
}

func newClaudeLike(p models.Provider, cat *catalog.Catalog) Adapter {
	return newAdapter(p, cat,
		claudeTools,
		map[string]string{
			"temperature": "temperature",
			"maxTokens":   "max_tokens",
			"topP":        "top_p",
		},
		map[string][2]float64{
			"temperature": {0, 1},
			"maxTokens":   {1, 200000},
			"topP":        {0, 1},
		},
	)
}

// ClaudeConfigView decodes the open config map into the Claude typed view.
// Non-numeric values are left nil; range enforcement is ValidateConfig's
// job.
func ClaudeConfigView(config map[string]any) ClaudeConfig {
	var view ClaudeConfig
	if v, ok := asFloat(config["temperature"]); ok {
		view.Temperature = &v
	}
	if v, ok := asFloat(config["maxTokens"]); ok {
		n := int(v)
		view.MaxTokens = &n
	}
	if v, ok := asFloat(config["topP"]); ok {
		view.TopP = &v
	}
	return view
}
