package models

import (
	"fmt"
	"regexp"
	"strings"
)

// slugPattern is the only accepted shape for agent slugs, which double as
// filenames under .claude/agents/.
var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// FieldError is a validation failure attributed to a single contract field,
// so UI callers can highlight the exact input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors is the full set of structural problems found in one pass.
type FieldErrors []FieldError

func (es FieldErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "invalid contract: " + strings.Join(msgs, "; ")
}

// HasField reports whether any error is attributed to the named field.
func (es FieldErrors) HasField(name string) bool {
	for _, e := range es {
		if e.Field == name {
			return true
		}
	}
	return false
}

// Validate checks the structural rules of a contract and collects every
// violation instead of stopping at the first. It knows nothing about
// providers — tool whitelists and provider numeric ranges belong to the
// provider adapters. Returns nil when the contract is well-formed.
func Validate(c *AgentContract) FieldErrors {
	var errs FieldErrors

	if c.Slug == "" {
		errs = append(errs, FieldError{Field: "slug", Message: "slug is required"})
	} else if !slugPattern.MatchString(c.Slug) {
		errs = append(errs, FieldError{Field: "slug", Message: "slug must match ^[a-z0-9-]+$"})
	}

	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	if c.AgentType != "" && !containsEnum(AgentTypes, c.AgentType) {
		errs = append(errs, FieldError{Field: "agent_type", Message: fmt.Sprintf("unknown agent type %q", c.AgentType)})
	}

	if c.Provider != "" && !containsEnum(Providers, c.Provider) {
		errs = append(errs, FieldError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", c.Provider)})
	}

	if c.Scope != "" && !containsEnum(Scopes, c.Scope) {
		errs = append(errs, FieldError{Field: "scope", Message: fmt.Sprintf("unknown scope %q", c.Scope)})
	}
	if c.Scope == ScopeApp && c.AppID == "" {
		errs = append(errs, FieldError{Field: "app_id", Message: "app-scoped agents must reference an owning app"})
	}

	if c.Status != "" && !containsEnum(AgentStatuses, c.Status) {
		errs = append(errs, FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", c.Status)})
	}

	errs = append(errs, validateGenericConfig(c.Config)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateGenericConfig enforces provider-independent sanity bounds on the
// open config map. Provider-specific ranges (Claude temperature in [0,1],
// etc.) are the adapters' job.
func validateGenericConfig(config map[string]any) FieldErrors {
	var errs FieldErrors
	for key, raw := range config {
		switch key {
		case "temperature", "topP":
			if v, ok := asFloat(raw); ok && v < 0 {
				errs = append(errs, FieldError{
					Field:   "config." + key,
					Message: fmt.Sprintf("%s must not be negative, got %v", key, raw),
				})
			}
		case "maxTokens":
			if v, ok := asFloat(raw); ok && v < 1 {
				errs = append(errs, FieldError{
					Field:   "config.maxTokens",
					Message: fmt.Sprintf("maxTokens must be at least 1, got %v", raw),
				})
			}
		}
	}
	return errs
}

// asFloat widens any numeric config value to float64. YAML and JSON decoding
// produce a mix of int, int64 and float64 depending on the source.
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
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func containsEnum[T ~string](valid []T, v T) bool {
	for _, x := range valid {
		if x == v {
			return true
		}
	}
	return false
}
