// Package store — in-memory Store implementation.
// Stands in for the platform's relational store in local dev and tests.
// Supports file-based snapshot persistence so data survives restarts.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// snapshot is the JSON-serializable shape written to disk.
type snapshot struct {
	Agents map[string]*models.AgentContract   `json:"agents"` // key: id
	Apps   map[string]*models.AppRegistration `json:"apps"`   // key: id
}

// MemoryStore implements Store with in-memory maps.
type MemoryStore struct {
	mu        sync.RWMutex
	agents    map[string]*models.AgentContract   // key: id
	slugIndex map[string]string                  // key: appID:slug → id
	apps      map[string]*models.AppRegistration // key: id

	// Persistence
	snapshotPath string        // empty = no persistence
	saveMu       sync.Mutex    // guards file writes
	saveCh       chan struct{} // debounce channel
	doneCh       chan struct{} // stops the save goroutine
}

// NewMemoryStore creates an in-memory store. If dataDir is non-empty, data
// is persisted to a JSON snapshot in that directory and reloaded on start.
func NewMemoryStore(dataDir string) *MemoryStore {
	m := &MemoryStore{
		agents:    make(map[string]*models.AgentContract),
		slugIndex: make(map[string]string),
		apps:      make(map[string]*models.AppRegistration),
		saveCh:    make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
	}

	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dataDir).Msg("Cannot create data dir, persistence disabled")
		} else {
			m.snapshotPath = filepath.Join(dataDir, "acc.json")
			m.loadSnapshot()
			go m.saveLoop()
		}
	}

	log.Info().Str("snapshot", m.snapshotPath).Msg("Memory store configured")
	return m
}

func slugKey(appID, slug string) string { return appID + ":" + slug }

// ── Agent Store ─────────────────────────────────────────────

func (m *MemoryStore) CreateAgent(_ context.Context, c *models.AgentContract) (*models.AgentContract, error) {
	m.mu.Lock()
	sk := slugKey(c.AppID, c.Slug)
	if _, exists := m.slugIndex[sk]; exists {
		m.mu.Unlock()
		return nil, &ErrConflict{Entity: "agent", Key: sk}
	}

	cp := c.Clone()
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	if cp.Version == 0 {
		cp.Version = 1
	}
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	m.agents[cp.ID] = cp
	m.slugIndex[sk] = cp.ID
	m.mu.Unlock()
	m.requestSave()
	return cp.Clone(), nil
}

func (m *MemoryStore) UpdateAgent(_ context.Context, c *models.AgentContract) (*models.AgentContract, error) {
	m.mu.Lock()
	old, ok := m.agents[c.ID]
	if !ok {
		m.mu.Unlock()
		return nil, &ErrNotFound{Entity: "agent", Key: c.ID}
	}

	cp := c.Clone()
	cp.CreatedAt = old.CreatedAt
	cp.Version = old.Version
	if !provenanceOnlyChange(old, cp) {
		cp.Version = old.Version + 1
	}
	cp.UpdatedAt = time.Now().UTC()

	// Slug or owning app may have changed; keep the index consistent.
	oldKey, newKey := slugKey(old.AppID, old.Slug), slugKey(cp.AppID, cp.Slug)
	if oldKey != newKey {
		if _, exists := m.slugIndex[newKey]; exists {
			m.mu.Unlock()
			return nil, &ErrConflict{Entity: "agent", Key: newKey}
		}
		delete(m.slugIndex, oldKey)
		m.slugIndex[newKey] = cp.ID
	}

	m.agents[cp.ID] = cp
	m.mu.Unlock()
	m.requestSave()
	return cp.Clone(), nil
}

// provenanceOnlyChange reports whether old and next differ only in the sync
// provenance fields. Those updates must not bump the version.
func provenanceOnlyChange(old, next *models.AgentContract) bool {
	a, b := old.Clone(), next.Clone()
	for _, c := range []*models.AgentContract{a, b} {
		c.SourceFileHash = ""
		c.SourceFilePath = ""
		c.LastSyncedAt = nil
		c.Version = 0
		c.UpdatedAt = time.Time{}
	}
	return reflect.DeepEqual(a, b)
}

func (m *MemoryStore) GetAgent(_ context.Context, id string) (*models.AgentContract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.agents[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "agent", Key: id}
	}
	return c.Clone(), nil
}

func (m *MemoryStore) GetAgentBySlug(_ context.Context, slug, appID string) (*models.AgentContract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.slugIndex[slugKey(appID, slug)]
	if !ok {
		return nil, &ErrNotFound{Entity: "agent", Key: slugKey(appID, slug)}
	}
	return m.agents[id].Clone(), nil
}

func (m *MemoryStore) ListAgents(_ context.Context, filter AgentFilter) ([]models.AgentContract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.AgentContract, 0, len(m.agents))
	for _, c := range m.agents {
		if !matchesFilter(c, filter) {
			continue
		}
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func matchesFilter(c *models.AgentContract, f AgentFilter) bool {
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.AgentType != "" && c.AgentType != f.AgentType {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.AppID != "" && c.AppID != f.AppID {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Slug), q) &&
			!strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.Description), q) {
			return false
		}
	}
	return true
}

func (m *MemoryStore) DeleteAgent(_ context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.agents[id]
	if !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "agent", Key: id}
	}
	delete(m.slugIndex, slugKey(c.AppID, c.Slug))
	delete(m.agents, id)
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── App Store ───────────────────────────────────────────────

func (m *MemoryStore) CreateApp(_ context.Context, app *models.AppRegistration) (*models.AppRegistration, error) {
	m.mu.Lock()
	for _, existing := range m.apps {
		if existing.Slug == app.Slug {
			m.mu.Unlock()
			return nil, &ErrConflict{Entity: "app", Key: app.Slug}
		}
	}
	cp := *app
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.apps[cp.ID] = &cp
	m.mu.Unlock()
	m.requestSave()
	out := cp
	return &out, nil
}

func (m *MemoryStore) UpdateApp(_ context.Context, app *models.AppRegistration) (*models.AppRegistration, error) {
	m.mu.Lock()
	old, ok := m.apps[app.ID]
	if !ok {
		m.mu.Unlock()
		return nil, &ErrNotFound{Entity: "app", Key: app.ID}
	}
	cp := *app
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	m.apps[cp.ID] = &cp
	m.mu.Unlock()
	m.requestSave()
	out := cp
	return &out, nil
}

func (m *MemoryStore) GetApp(_ context.Context, id string) (*models.AppRegistration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "app", Key: id}
	}
	out := *app
	return &out, nil
}

func (m *MemoryStore) GetAppBySlug(_ context.Context, slug string) (*models.AppRegistration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, app := range m.apps {
		if app.Slug == slug {
			out := *app
			return &out, nil
		}
	}
	return nil, &ErrNotFound{Entity: "app", Key: slug}
}

func (m *MemoryStore) ListApps(_ context.Context) ([]models.AppRegistration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.AppRegistration, 0, len(m.apps))
	for _, app := range m.apps {
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// ── Lifecycle ───────────────────────────────────────────────

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	select {
	case <-m.doneCh:
		// already closed
	default:
		close(m.doneCh)
	}
	if m.snapshotPath != "" {
		m.saveSnapshot()
	}
	return nil
}

// ── Snapshot persistence ────────────────────────────────────

func (m *MemoryStore) requestSave() {
	if m.snapshotPath == "" {
		return
	}
	select {
	case m.saveCh <- struct{}{}:
	default:
		// Already pending
	}
}

func (m *MemoryStore) saveLoop() {
	for {
		select {
		case <-m.doneCh:
			return
		case <-m.saveCh:
			time.Sleep(500 * time.Millisecond) // debounce
			m.saveSnapshot()
		}
	}
}

func (m *MemoryStore) saveSnapshot() {
	m.mu.RLock()
	snap := snapshot{Agents: m.agents, Apps: m.apps}
	data, err := json.MarshalIndent(snap, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal snapshot")
		return
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	// Write to temp file then rename for atomicity
	tmp := m.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Error().Err(err).Str("path", tmp).Msg("Failed to write snapshot tmp")
		return
	}
	if err := os.Rename(tmp, m.snapshotPath); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to rename snapshot")
	}
}

func (m *MemoryStore) loadSnapshot() {
	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", m.snapshotPath).Msg("No snapshot file found, starting fresh")
			return
		}
		log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Failed to read snapshot")
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to parse snapshot, starting fresh")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Agents != nil {
		m.agents = snap.Agents
	}
	if snap.Apps != nil {
		m.apps = snap.Apps
	}
	// Rebuild the slug index; it is derived state and not snapshotted.
	m.slugIndex = make(map[string]string, len(m.agents))
	for id, c := range m.agents {
		m.slugIndex[slugKey(c.AppID, c.Slug)] = id
	}
	log.Info().Int("agents", len(m.agents)).Int("apps", len(m.apps)).Msg("Snapshot loaded")
}
