// Package store provides the persistence interface consumed by the Agent
// Control Center and an in-memory implementation of it.
//
// The sync engine and HTTP handlers depend only on the Store interface; the
// relational store behind the real platform satisfies the same contract.
// All calls are transactional at single-record granularity.
package store

import (
	"context"

	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// Store is the narrow persistence surface the engine is built against.
type Store interface {
	AgentStore
	AppStore

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// AgentFilter narrows ListAgents. Zero values mean "any"; Search matches a
// case-insensitive substring of slug, name or description.
type AgentFilter struct {
	Provider  models.Provider
	AgentType models.AgentType
	Status    models.AgentStatus
	AppID     string
	Search    string
}

// AgentStore persists agent contracts. Slug uniqueness is scoped to the
// owning app: the same slug may exist under two different apps, or once
// with no owning app.
type AgentStore interface {
	CreateAgent(ctx context.Context, c *models.AgentContract) (*models.AgentContract, error)

	// UpdateAgent replaces the stored record. The version increments
	// whenever any field other than sync provenance (SourceFileHash,
	// SourceFilePath, LastSyncedAt) changed.
	UpdateAgent(ctx context.Context, c *models.AgentContract) (*models.AgentContract, error)

	GetAgent(ctx context.Context, id string) (*models.AgentContract, error)

	// GetAgentBySlug resolves slug within the owning app; appID is empty
	// for agents with no owning app.
	GetAgentBySlug(ctx context.Context, slug, appID string) (*models.AgentContract, error)

	ListAgents(ctx context.Context, filter AgentFilter) ([]models.AgentContract, error)

	DeleteAgent(ctx context.Context, id string) error
}

// AppStore persists app registry entries. The entries' lifecycle belongs to
// the wider platform; the sync engine reads repo locations and records sync
// outcomes.
type AppStore interface {
	CreateApp(ctx context.Context, app *models.AppRegistration) (*models.AppRegistration, error)
	UpdateApp(ctx context.Context, app *models.AppRegistration) (*models.AppRegistration, error)
	GetApp(ctx context.Context, id string) (*models.AppRegistration, error)
	GetAppBySlug(ctx context.Context, slug string) (*models.AppRegistration, error)
	ListApps(ctx context.Context) ([]models.AppRegistration, error)
}

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// ErrConflict is returned when a write would violate a uniqueness rule.
type ErrConflict struct {
	Entity string
	Key    string
}

func (e *ErrConflict) Error() string {
	return e.Entity + " already exists: " + e.Key
}
