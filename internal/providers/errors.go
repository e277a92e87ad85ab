package providers

import (
	"fmt"
	"strings"

	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// IncompleteDataError reports required contract fields that were missing
// after adapting a provider-native shape. Slug and name are always required.
type IncompleteDataError struct {
	Provider models.Provider
	Missing  []string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("%s: incomplete native data, missing %s",
		e.Provider, strings.Join(e.Missing, ", "))
}

// InvalidToolError reports a single tool name outside the provider's
// vocabulary. Validation collects one per offending tool rather than
// aggregating, so callers can show exactly which tools are invalid.
type InvalidToolError struct {
	Provider models.Provider
	Tool     string
}

func (e *InvalidToolError) Error() string {
	return fmt.Sprintf("%s: unknown tool %q", e.Provider, e.Tool)
}

// RangeError reports a config value outside the provider's accepted range.
type RangeError struct {
	Provider models.Provider
	Field    string
	Value    any
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: config %s=%v out of range [%g, %g]",
		e.Provider, e.Field, e.Value, e.Min, e.Max)
}
