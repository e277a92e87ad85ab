package providers

import (
	"github.com/advisorhub/advisorhub/agent-control/internal/catalog"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// OllamaConfig is the typed view of the open config map for Ollama agents.
// Fields mirror the generation request options.
type OllamaConfig struct {
	Temperature *float64
	NumPredict  *int
	NumCtx      *int
	TopP        *float64
}

// NewOllamaAdapter builds the adapter for Ollama generation requests.
// Ollama has no tool vocabulary: any tool reference is invalid.
func NewOllamaAdapter(cat *catalog.Catalog) Adapter {
	return newAdapter(models.ProviderOllama, cat,
		[]string{},
		map[string]string{
			"temperature": "temperature",
			"maxTokens":   "num_predict",
			"numCtx":      "num_ctx",
			"topP":        "top_p",
		},
		map[string][2]float64{
			"temperature": {0, 2},
			"maxTokens":   {1, 131072},
			"numCtx":      {1, 131072},
			"topP":        {0, 1},
		},
	)
}

// OllamaConfigView decodes the open config map into the Ollama typed view.
func OllamaConfigView(config map[string]any) OllamaConfig {
	var view OllamaConfig
	if v, ok := asFloat(config["temperature"]); ok {
		view.Temperature = &v
	}
	if v, ok := asFloat(config["maxTokens"]); ok {
		n := int(v)
		view.NumPredict = &n
	}
	if v, ok := asFloat(config["numCtx"]); ok {
		n := int(v)
		view.NumCtx = &n
	}
	if v, ok := asFloat(config["topP"]); ok {
		view.TopP = &v
	}
	return view
}
