// Package registry is the app-registry collaborator surface consumed by the
// sync engine. The registry itself is owned by the wider platform; the
// engine only reads repo locations and writes back sync bookkeeping.
package registry

import (
	"context"
	"time"

	"github.com/advisorhub/advisorhub/agent-control/internal/store"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// Registry supplies repository paths and accepts last-sync bookkeeping.
type Registry interface {
	ListApps(ctx context.Context) ([]models.AppRegistration, error)
	GetAppBySlug(ctx context.Context, slug string) (*models.AppRegistration, error)

	// RecordSyncOutcome writes LastSyncAt/LastSyncStatus back to the entry.
	RecordSyncOutcome(ctx context.Context, appID string, status models.SyncStatus, at time.Time) error
}

// StoreRegistry adapts the persistence interface to the Registry surface.
type StoreRegistry struct {
	apps store.AppStore
}

// NewStoreRegistry wraps an AppStore as a Registry.
func NewStoreRegistry(apps store.AppStore) *StoreRegistry {
	return &StoreRegistry{apps: apps}
}

func (r *StoreRegistry) ListApps(ctx context.Context) ([]models.AppRegistration, error) {
	return r.apps.ListApps(ctx)
}

func (r *StoreRegistry) GetAppBySlug(ctx context.Context, slug string) (*models.AppRegistration, error) {
	return r.apps.GetAppBySlug(ctx, slug)
}

func (r *StoreRegistry) RecordSyncOutcome(ctx context.Context, appID string, status models.SyncStatus, at time.Time) error {
	app, err := r.apps.GetApp(ctx, appID)
	if err != nil {
		return err
	}
	app.LastSyncAt = &at
	app.LastSyncStatus = status
	_, err = r.apps.UpdateApp(ctx, app)
	return err
}
