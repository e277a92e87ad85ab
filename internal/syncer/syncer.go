// Package syncer implements the ACC synchronization engine: pull (file →
// store) and push (store → file) of agent definitions kept as Markdown
// files with YAML front matter inside application repositories.
//
// Pull walks one app's agents directory, translates each file through the
// frontmatter codec and the provider adapter, and reconciles the result
// against the stored contract using a content fingerprint. Per-file
// failures are contained: they become entries in the SyncResult and never
// abort the run. Push targets exactly one agent, validates before touching
// the filesystem, and never deletes anything.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/advisorhub/advisorhub/agent-control/internal/fingerprint"
	"github.com/advisorhub/advisorhub/agent-control/internal/frontmatter"
	"github.com/advisorhub/advisorhub/agent-control/internal/providers"
	"github.com/advisorhub/advisorhub/agent-control/internal/registry"
	"github.com/advisorhub/advisorhub/agent-control/internal/store"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// agentsDir is where agent files live inside an app repo. Subdirectories
// are ignored: one file, one agent.
const agentsDir = ".claude/agents"

// Service orchestrates directory scanning, pull and push operations,
// per-(app, slug) locking, and result aggregation.
type Service struct {
	store    store.Store
	registry registry.Registry
	adapters *providers.Registry
	logger   zerolog.Logger
	tracer   trace.Tracer

	// concurrency bounds the number of app-level pulls in flight during
	// PullAll. Files within one app are always processed sequentially.
	concurrency int

	locks *keyedLocks
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency overrides the bounded worker-pool size used by PullAll.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger replaces the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates the sync service. The persistence interface and the app
// registry collaborator are passed explicitly; the service holds no ambient
// handles.
func New(st store.Store, reg registry.Registry, adapters *providers.Registry, opts ...Option) *Service {
	s := &Service{
		store:       st,
		registry:    reg,
		adapters:    adapters,
		logger:      zerolog.Nop(),
		tracer:      otel.Tracer("agent-control/syncer"),
		concurrency: defaultConcurrency(),
		locks:       newKeyedLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultConcurrency() int {
	if n := runtime.NumCPU(); n < 8 {
		return n
	}
	return 8
}

// ── Pull ────────────────────────────────────────────────────

// PullAll runs a pull for every registered app on the bounded worker pool
// and returns one SyncResult per app, ordered by app slug.
func (s *Service) PullAll(ctx context.Context) ([]*models.SyncResult, error) {
	apps, err := s.registry.ListApps(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}

	results := make([]*models.SyncResult, len(apps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, app := range apps {
		i, app := i, app
		g.Go(func() error {
			results[i] = s.pullApp(gctx, &app)
			return nil
		})
	}
	g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].AppSlug < results[j].AppSlug })
	return results, nil
}

// Pull synchronizes one app's agents directory into the store.
func (s *Service) Pull(ctx context.Context, appSlug string) (*models.SyncResult, error) {
	app, err := s.registry.GetAppBySlug(ctx, appSlug)
	if err != nil {
		return nil, err
	}
	return s.pullApp(ctx, app), nil
}

func (s *Service) pullApp(ctx context.Context, app *models.AppRegistration) *models.SyncResult {
	ctx, span := s.tracer.Start(ctx, "syncer.pull",
		trace.WithAttributes(attribute.String("app.slug", app.Slug)))
	defer span.End()

	start := time.Now()
	result := &models.SyncResult{
		AppID:   app.ID,
		AppSlug: app.Slug,
		Errors:  []string{},
	}

	defer func() {
		result.DurationMs = time.Since(start).Milliseconds()
		s.recordOutcome(ctx, app, result)
		s.logger.Info().
			Str("app", app.Slug).
			Str("status", string(result.Status)).
			Int("processed", result.AgentsProcessed).
			Int("created", result.AgentsCreated).
			Int("updated", result.AgentsUpdated).
			Int("errors", len(result.Errors)).
			Int64("duration_ms", result.DurationMs).
			Msg("pull finished")
	}()

	if app.RepoPath == "" {
		result.Status = models.SyncStatusFailed
		result.Errors = append(result.Errors, (&RepoPathError{AppSlug: app.Slug}).Error())
		return result
	}

	dir := filepath.Join(app.RepoPath, agentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Status = models.SyncStatusFailed
		result.Errors = append(result.Errors, (&FilesystemError{Op: "read dir", Path: dir, Err: err}).Error())
		return result
	}

	// Deterministic order: lexicographic by filename, so counts and error
	// lists are reproducible for an unchanged repository.
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	seen := make(map[string]bool, len(names))
	timedOut := false
	for _, name := range names {
		if ctx.Err() != nil {
			// Deadline expired: committed updates stand, no new file
			// begins. The caller treats the run as partial and retries.
			timedOut = true
			break
		}
		path := filepath.Join(dir, name)
		seen[name] = true
		if msg := s.pullFile(ctx, app, path, name, result); msg != "" {
			result.Errors = append(result.Errors, msg)
		}
	}

	// A truncated scan cannot tell a missing file from an unvisited one.
	if !timedOut {
		s.collectAdvisories(ctx, app, seen, result)
	}

	switch {
	case len(result.Errors) == 0 && !timedOut:
		result.Status = models.SyncStatusSuccess
	case timedOut, result.AgentsProcessed > 0:
		result.Status = models.SyncStatusPartial
	case result.AgentsProcessed == 0 && len(names) > 0:
		// Every file failed translation; the run still completed.
		result.Status = models.SyncStatusPartial
	default:
		result.Status = models.SyncStatusFailed
	}
	return result
}

// pullFile processes a single agent file and returns a non-empty error
// message when the file must be reported in SyncResult.Errors. The stored
// record is never touched on failure.
func (s *Service) pullFile(ctx context.Context, app *models.AppRegistration, path, filename string, result *models.SyncResult) string {
	// Error attribution uses the slug when known, the filename otherwise.
	label := strings.TrimSuffix(filename, ".md")

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("%s: %v", label, &FilesystemError{Op: "read", Path: path, Err: err})
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return fmt.Sprintf("%s: %v", label, err)
	}

	adapter, err := s.adapters.Resolve(fileProvider(doc.Fields))
	if err != nil {
		return fmt.Sprintf("%s: %v", label, err)
	}

	contract, err := adapter.FromNative(&providers.NativeAgent{Fields: doc.Fields, Body: doc.Body})
	if err != nil {
		return fmt.Sprintf("%s: %v", label, err)
	}
	label = contract.Slug

	if errs := models.Validate(contract); errs != nil {
		return fmt.Sprintf("%s: %v", label, errs)
	}
	var provErrs []error
	provErrs = append(provErrs, adapter.ValidateTools(contract.Tools)...)
	provErrs = append(provErrs, adapter.ValidateConfig(contract.Config)...)
	if len(provErrs) > 0 {
		return fmt.Sprintf("%s: %v", label, errors.Join(provErrs...))
	}

	hash := fingerprint.Sum(raw)

	unlock := s.locks.acquire(app.ID, contract.Slug)
	defer unlock()

	now := time.Now().UTC()
	existing, err := s.store.GetAgentBySlug(ctx, contract.Slug, app.ID)
	var notFound *store.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		contract.Scope = models.ScopeApp
		contract.AppID = app.ID
		if contract.Status == "" {
			contract.Status = models.AgentStatusDraft
		}
		contract.SourceFileHash = hash
		contract.SourceFilePath = path
		contract.LastSyncedAt = &now
		if _, err := s.store.CreateAgent(ctx, contract); err != nil {
			return fmt.Sprintf("%s: persist: %v", label, err)
		}
		result.AgentsCreated++

	case err != nil:
		return fmt.Sprintf("%s: persist: %v", label, err)

	case existing.SourceFileHash == hash:
		// Unchanged since last sync: silent skip.

	default:
		// The file may move an agent through the lifecycle, but only along
		// legal transitions; an archived agent cannot be resurrected by a
		// file edit.
		if contract.Status != "" && contract.Status != existing.Status &&
			!models.CanTransition(existing.Status, contract.Status) {
			return fmt.Sprintf("%s: file requests illegal status transition %s -> %s",
				label, existing.Status, contract.Status)
		}
		merged := mergeFromFile(existing, contract)
		merged.SourceFileHash = hash
		merged.SourceFilePath = path
		merged.LastSyncedAt = &now
		if _, err := s.store.UpdateAgent(ctx, merged); err != nil {
			return fmt.Sprintf("%s: persist: %v", label, err)
		}
		result.AgentsUpdated++
	}

	result.AgentsProcessed++
	return ""
}

// fileProvider decides which adapter translates a file. Files under
// .claude/agents default to the claude shape; an explicit provider key in
// the front matter overrides it.
func fileProvider(fields map[string]any) models.Provider {
	if p, ok := fields["provider"].(string); ok && p != "" {
		return models.Provider(p)
	}
	return models.ProviderClaude
}

// mergeFromFile overlays the file-owned fields onto the stored record.
// Identity, scope, session hooks and governance history stay with the
// record; the file is authoritative for everything it represents.
func mergeFromFile(existing, fromFile *models.AgentContract) *models.AgentContract {
	merged := existing.Clone()
	merged.Name = fromFile.Name
	merged.Description = fromFile.Description
	if fromFile.AgentType != "" {
		merged.AgentType = fromFile.AgentType
	}
	merged.ModelID = fromFile.ModelID
	merged.Tools = fromFile.Tools
	merged.Config = fromFile.Config
	merged.SystemPrompt = fromFile.SystemPrompt
	if fromFile.Status != "" {
		merged.Status = fromFile.Status
	}
	if fromFile.Owner != "" {
		merged.Owner = fromFile.Owner
	}
	return merged
}

// collectAdvisories flags previously-synced records whose source file is
// gone from the repo. Pull is never destructive: missing files are
// reported, never acted on.
func (s *Service) collectAdvisories(ctx context.Context, app *models.AppRegistration, seen map[string]bool, result *models.SyncResult) {
	agents, err := s.store.ListAgents(ctx, store.AgentFilter{AppID: app.ID})
	if err != nil {
		s.logger.Warn().Err(err).Str("app", app.Slug).Msg("advisory scan failed")
		return
	}
	for _, agent := range agents {
		if agent.SourceFilePath == "" {
			continue
		}
		if !seen[filepath.Base(agent.SourceFilePath)] {
			result.Advisories = append(result.Advisories,
				fmt.Sprintf("%s: source file %s no longer present", agent.Slug, agent.SourceFilePath))
		}
	}
}

func (s *Service) recordOutcome(ctx context.Context, app *models.AppRegistration, result *models.SyncResult) {
	if err := s.registry.RecordSyncOutcome(ctx, app.ID, result.Status, time.Now().UTC()); err != nil {
		s.logger.Warn().Err(err).Str("app", app.Slug).Msg("failed to record sync outcome")
	}
}

// ── Push ────────────────────────────────────────────────────

// Push writes one agent's definition back to its source file. Validation
// runs before any filesystem write; a push failure is surfaced directly
// since there is no "continue with the rest" semantics for a single target.
func (s *Service) Push(ctx context.Context, agentID string) (*models.AgentContract, error) {
	ctx, span := s.tracer.Start(ctx, "syncer.push",
		trace.WithAttributes(attribute.String("agent.id", agentID)))
	defer span.End()

	contract, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if errs := models.Validate(contract); errs != nil {
		return nil, errs
	}
	adapter, err := s.adapters.Resolve(contract.Provider)
	if err != nil {
		return nil, err
	}
	var provErrs []error
	provErrs = append(provErrs, adapter.ValidateTools(contract.Tools)...)
	provErrs = append(provErrs, adapter.ValidateConfig(contract.Config)...)
	if len(provErrs) > 0 {
		return nil, errors.Join(provErrs...)
	}

	path, err := s.resolveTargetPath(ctx, contract)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(contract.AppID, contract.Slug)
	defer unlock()

	native, err := adapter.ToNative(contract)
	if err != nil {
		return nil, err
	}
	raw := frontmatter.Serialize(&frontmatter.Document{Fields: native.Fields, Body: native.Body})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &FilesystemError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, &FilesystemError{Op: "write", Path: path, Err: err}
	}

	now := time.Now().UTC()
	contract.SourceFileHash = fingerprint.Sum(raw)
	contract.SourceFilePath = path
	contract.LastSyncedAt = &now

	updated, err := s.store.UpdateAgent(ctx, contract)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("agent", contract.Slug).
		Str("path", path).
		Msg("push finished")
	return updated, nil
}

// resolveTargetPath picks the file a push writes to: the recorded source
// path when the agent has been synced before, otherwise the default
// location inside the owning app's repo.
func (s *Service) resolveTargetPath(ctx context.Context, c *models.AgentContract) (string, error) {
	if c.SourceFilePath != "" {
		return c.SourceFilePath, nil
	}
	if c.AppID == "" {
		return "", &RepoPathError{AppSlug: c.Slug}
	}
	app, err := s.store.GetApp(ctx, c.AppID)
	if err != nil {
		return "", err
	}
	if app.RepoPath == "" {
		return "", &RepoPathError{AppSlug: app.Slug}
	}
	return filepath.Join(app.RepoPath, agentsDir, c.Slug+".md"), nil
}
