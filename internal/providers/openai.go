package providers

import (
	"github.com/advisorhub/advisorhub/agent-control/internal/catalog"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// openaiTools mirrors the Assistants-style tool kinds.
var openaiTools = []string{
	"code_interpreter", "file_search", "function", "web_search",
}

// OpenAIConfig is the typed view of the open config map for OpenAI agents.
type OpenAIConfig struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// NewOpenAIAdapter builds the adapter for OpenAI Assistants-style agent
// definitions. Token limits travel as max_completion_tokens in the native
// shape.
func NewOpenAIAdapter(cat *catalog.Catalog) Adapter {
	return newAdapter(models.ProviderOpenAI, cat,
		openaiTools,
		map[string]string{
			"temperature": "temperature",
			"maxTokens":   "max_completion_tokens",
			"topP":        "top_p",
		},
		map[string][2]float64{
			"temperature": {0, 2},
			"maxTokens":   {1, 128000},
			"topP":        {0, 1},
		},
	)
}

// OpenAIConfigView decodes the open config map into the OpenAI typed view.
func OpenAIConfigView(config map[string]any) OpenAIConfig {
	var view OpenAIConfig
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
