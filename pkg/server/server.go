// Package server provides the public entry point for initializing the
// Agent Control Center sync engine.
//
// It lives in pkg/ (not internal/) so the wider dashboard platform can
// embed the engine and compose it with its own auth and UI layers.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/advisorhub/advisorhub/agent-control/internal/api"
	"github.com/advisorhub/advisorhub/agent-control/internal/api/handlers"
	"github.com/advisorhub/advisorhub/agent-control/internal/catalog"
	"github.com/advisorhub/advisorhub/agent-control/internal/config"
	"github.com/advisorhub/advisorhub/agent-control/internal/providers"
	"github.com/advisorhub/advisorhub/agent-control/internal/registry"
	"github.com/advisorhub/advisorhub/agent-control/internal/store"
	"github.com/advisorhub/advisorhub/agent-control/internal/syncer"
	"github.com/advisorhub/advisorhub/agent-control/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized sync engine.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the persistence interface backing the engine. Exposed so an
	// embedding platform can share it with its own services.
	Store store.Store

	// Syncer is the pull/push engine, exposed for scheduled sync jobs.
	Syncer *syncer.Service

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all engine components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the engine with an explicit configuration.
func NewWithConfig(_ context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore := store.NewMemoryStore(cfg.DataDir)
	log.Info().Msg("Store initialized")

	cat := catalog.New()
	adapters := providers.NewRegistry(cat)
	apps := registry.NewStoreRegistry(dataStore)

	var opts []syncer.Option
	if cfg.Sync.Concurrency > 0 {
		opts = append(opts, syncer.WithConcurrency(cfg.Sync.Concurrency))
	}
	opts = append(opts, syncer.WithLogger(log.With().Str("component", "syncer").Logger()))
	sync := syncer.New(dataStore, apps, adapters, opts...)
	log.Info().Msg("Sync engine initialized")

	h := handlers.New(dataStore, sync, adapters)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Syncer:       sync,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}
