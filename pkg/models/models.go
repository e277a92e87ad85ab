// Package models defines the canonical entities of the Agent Control Center:
// the provider-agnostic AgentContract, the app registry entry, and the
// SyncResult value object reported by pull/push runs.
package models

import (
	"time"
)

// ── Agent Contract ───────────────────────────────────────────

// AgentType classifies what kind of workflow an agent implements.
type AgentType string

const (
	AgentTypePlanExecute  AgentType = "plan_execute"
	AgentTypeMultiAgent   AgentType = "multi_agent"
	AgentTypeRAG          AgentType = "rag"
	AgentTypeToolQA       AgentType = "tool_qa"
	AgentTypeDomainExpert AgentType = "domain_expert"
	AgentTypeAssistant    AgentType = "assistant"
)

// AgentTypes lists every valid agent type, in declaration order.
var AgentTypes = []AgentType{
	AgentTypePlanExecute,
	AgentTypeMultiAgent,
	AgentTypeRAG,
	AgentTypeToolQA,
	AgentTypeDomainExpert,
	AgentTypeAssistant,
}

// Provider identifies which LLM provider an agent is bound to.
type Provider string

const (
	ProviderClaude    Provider = "claude"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderOllama    Provider = "ollama"
	ProviderCustom    Provider = "custom"
)

// Providers lists every valid provider identifier.
var Providers = []Provider{
	ProviderClaude,
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGoogle,
	ProviderOllama,
	ProviderCustom,
}

// Scope is the visibility tier of an agent. Platform is global; app is the
// most specific and requires an owning app reference.
type Scope string

const (
	ScopePlatform Scope = "platform"
	ScopeDomain   Scope = "domain"
	ScopeTenant   Scope = "tenant"
	ScopeApp      Scope = "app"
)

// Scopes lists every valid scope, broadest first.
var Scopes = []Scope{ScopePlatform, ScopeDomain, ScopeTenant, ScopeApp}

// AgentStatus is the governance state of a contract.
type AgentStatus string

const (
	AgentStatusDraft      AgentStatus = "draft"
	AgentStatusActive     AgentStatus = "active"
	AgentStatusDeprecated AgentStatus = "deprecated"
	AgentStatusArchived   AgentStatus = "archived"
)

// AgentStatuses lists every valid status, in lifecycle order.
var AgentStatuses = []AgentStatus{
	AgentStatusDraft,
	AgentStatusActive,
	AgentStatusDeprecated,
	AgentStatusArchived,
}

// CanTransition reports whether a status change is legal. Draft and active
// cycle via approve/unapprove; anything may archive; archived is terminal.
func CanTransition(from, to AgentStatus) bool {
	if from == to || from == AgentStatusArchived {
		return false
	}
	if to == AgentStatusArchived {
		return true
	}
	switch from {
	case AgentStatusDraft:
		return to == AgentStatusActive
	case AgentStatusActive:
		return to == AgentStatusDraft || to == AgentStatusDeprecated
	}
	return false
}

// AgentContract is the canonical, provider-agnostic record describing one
// agent. Provider adapters translate it into and out of provider-native
// shapes; the sync engine reconciles it against on-disk Markdown files.
type AgentContract struct {
	ID          string    `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	AgentType   AgentType `json:"agent_type" db:"agent_type"`

	// Provider binding
	Provider Provider `json:"provider" db:"provider"`
	ModelID  string   `json:"model_id,omitempty" db:"model_id"`

	// Visibility — AppID names the owning app registration and is required
	// when Scope is "app".
	Scope Scope  `json:"scope" db:"scope"`
	AppID string `json:"app_id,omitempty" db:"app_id"`

	// Behavior
	SystemPrompt string         `json:"system_prompt,omitempty" db:"system_prompt"`
	Tools        []string       `json:"tools,omitempty"`
	Config       map[string]any `json:"config,omitempty"`

	// Session hooks — free text consumed by the agent runtime, opaque here.
	StartProcedure   string `json:"start_procedure,omitempty" db:"start_procedure"`
	EndProcedure     string `json:"end_procedure,omitempty" db:"end_procedure"`
	ProgressTemplate string `json:"progress_template,omitempty" db:"progress_template"`

	// Governance
	Status AgentStatus `json:"status" db:"status"`
	Owner  string      `json:"owner,omitempty" db:"owner"`

	// Version only increases. Every persisted update that changes any field
	// other than sync provenance increments it by one.
	Version int `json:"version" db:"version"`

	// Sync provenance — fingerprint and location of the last-synced file.
	SourceFileHash string     `json:"source_file_hash,omitempty" db:"source_file_hash"`
	SourceFilePath string     `json:"source_file_path,omitempty" db:"source_file_path"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty" db:"last_synced_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of the contract. Tools and Config are copied so
// callers can mutate the clone without aliasing the original.
func (c *AgentContract) Clone() *AgentContract {
	cp := *c
	if c.Tools != nil {
		cp.Tools = append([]string(nil), c.Tools...)
	}
	if c.Config != nil {
		cp.Config = make(map[string]any, len(c.Config))
		for k, v := range c.Config {
			cp.Config[k] = v
		}
	}
	if c.LastSyncedAt != nil {
		t := *c.LastSyncedAt
		cp.LastSyncedAt = &t
	}
	return &cp
}

// HasTool reports whether the contract lists the named tool. Tool order is
// not significant.
func (c *AgentContract) HasTool(name string) bool {
	for _, t := range c.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// ── App Registry ─────────────────────────────────────────────

// SyncStatus is the outcome of a sync run, recorded per app and on each
// SyncResult.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

// AppRegistration is an app registry entry. Its lifecycle is owned by the
// wider platform; the sync engine reads the repo location and writes back
// sync bookkeeping.
type AppRegistration struct {
	ID       string `json:"id" db:"id"`
	Slug     string `json:"slug" db:"slug"`
	Name     string `json:"name" db:"name"`
	RepoPath string `json:"repo_path,omitempty" db:"repo_path"`
	Tier     string `json:"tier,omitempty" db:"tier"`

	LastSyncAt     *time.Time `json:"last_sync_at,omitempty" db:"last_sync_at"`
	LastSyncStatus SyncStatus `json:"last_sync_status,omitempty" db:"last_sync_status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ── Sync Result ──────────────────────────────────────────────

// SyncResult aggregates the per-file outcomes of one pull (or the single
// outcome of a push). It is a transient value object, never persisted.
type SyncResult struct {
	AppID   string     `json:"app_id"`
	AppSlug string     `json:"app_slug"`
	Status  SyncStatus `json:"status"`

	AgentsProcessed int `json:"agents_processed"`
	AgentsCreated   int `json:"agents_created"`
	AgentsUpdated   int `json:"agents_updated"`

	DurationMs int64 `json:"duration_ms"`

	// Errors holds one human-readable message per failed agent file, in the
	// order the files were processed.
	Errors []string `json:"errors"`

	// Advisories flags previously-synced records whose source file has
	// disappeared from the repo. Pull never deletes; it only reports.
	Advisories []string `json:"advisories,omitempty"`
}
