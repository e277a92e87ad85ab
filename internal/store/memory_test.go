package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

func newAgent(slug string) *models.AgentContract {
	return &models.AgentContract{
		Slug:      slug,
		Name:      "Agent " + slug,
		AgentType: models.AgentTypeAssistant,
		Provider:  models.ProviderClaude,
		Scope:     models.ScopePlatform,
		Status:    models.AgentStatusDraft,
	}
}

func mustCreate(t *testing.T, m *MemoryStore, c *models.AgentContract) *models.AgentContract {
	t.Helper()
	created, err := m.CreateAgent(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}
	return created
}

// ─── Agents ──────────────────────────────────────────────────

func TestCreateAgent_AssignsIdentityAndVersion(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()

	created := mustCreate(t, m, newAgent("alpha"))
	if created.ID == "" {
		t.Error("ID not assigned")
	}
	if created.Version != 1 {
		t.Errorf("Version = %d, want 1", created.Version)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestCreateAgent_SlugConflictScopedByApp(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	mustCreate(t, m, newAgent("alpha"))

	_, err := m.CreateAgent(ctx, newAgent("alpha"))
	var conflict *ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("duplicate CreateAgent() error = %v, want *ErrConflict", err)
	}

	// Same slug under a different app is a distinct agent.
	other := newAgent("alpha")
	other.Scope = models.ScopeApp
	other.AppID = "app-1"
	if _, err := m.CreateAgent(ctx, other); err != nil {
		t.Fatalf("CreateAgent() with different app error = %v", err)
	}
}

func TestUpdateAgent_BumpsVersionOnContentChange(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	created := mustCreate(t, m, newAgent("alpha"))

	next := created.Clone()
	next.Description = "now with a description"
	updated, err := m.UpdateAgent(ctx, next)
	if err != nil {
		t.Fatalf("UpdateAgent() error = %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Version)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}
}

func TestUpdateAgent_ProvenanceOnlyDoesNotBumpVersion(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	created := mustCreate(t, m, newAgent("alpha"))

	now := time.Now().UTC()
	next := created.Clone()
	next.SourceFileHash = "abc123"
	next.SourceFilePath = "/repo/.claude/agents/alpha.md"
	next.LastSyncedAt = &now

	updated, err := m.UpdateAgent(ctx, next)
	if err != nil {
		t.Fatalf("UpdateAgent() error = %v", err)
	}
	if updated.Version != created.Version {
		t.Errorf("Version = %d, want %d (provenance must not bump)", updated.Version, created.Version)
	}
	if updated.SourceFileHash != "abc123" {
		t.Errorf("SourceFileHash = %q, not persisted", updated.SourceFileHash)
	}
}

func TestUpdateAgent_SlugMoveConflicts(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	mustCreate(t, m, newAgent("alpha"))
	beta := mustCreate(t, m, newAgent("beta"))

	next := beta.Clone()
	next.Slug = "alpha"
	_, err := m.UpdateAgent(ctx, next)
	var conflict *ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("UpdateAgent() error = %v, want *ErrConflict", err)
	}
}

func TestGetAgentBySlug(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	created := mustCreate(t, m, newAgent("alpha"))

	got, err := m.GetAgentBySlug(ctx, "alpha", "")
	if err != nil {
		t.Fatalf("GetAgentBySlug() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}

	_, err = m.GetAgentBySlug(ctx, "missing", "")
	var notFound *ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("GetAgentBySlug(missing) error = %v, want *ErrNotFound", err)
	}
}

func TestListAgents_FiltersAndOrder(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	a := newAgent("zeta")
	a.Provider = models.ProviderOpenAI
	mustCreate(t, m, a)
	b := newAgent("alpha")
	b.Description = "handles billing questions"
	mustCreate(t, m, b)
	mustCreate(t, m, newAgent("mid"))

	all, err := m.ListAgents(ctx, AgentFilter{})
	if err != nil {
		t.Fatalf("ListAgents() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Slug != "alpha" || all[1].Slug != "mid" || all[2].Slug != "zeta" {
		t.Errorf("order = %s, %s, %s; want alpha, mid, zeta", all[0].Slug, all[1].Slug, all[2].Slug)
	}

	byProvider, _ := m.ListAgents(ctx, AgentFilter{Provider: models.ProviderOpenAI})
	if len(byProvider) != 1 || byProvider[0].Slug != "zeta" {
		t.Errorf("provider filter = %v, want [zeta]", byProvider)
	}

	bySearch, _ := m.ListAgents(ctx, AgentFilter{Search: "BILLING"})
	if len(bySearch) != 1 || bySearch[0].Slug != "alpha" {
		t.Errorf("search filter = %v, want [alpha]", bySearch)
	}
}

func TestDeleteAgent_FreesSlug(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	created := mustCreate(t, m, newAgent("alpha"))
	if err := m.DeleteAgent(ctx, created.ID); err != nil {
		t.Fatalf("DeleteAgent() error = %v", err)
	}
	if _, err := m.GetAgent(ctx, created.ID); err == nil {
		t.Error("GetAgent() after delete = nil error, want not found")
	}
	// The slug is reusable once the agent is gone.
	mustCreate(t, m, newAgent("alpha"))
}

func TestStoreReturnsCopies(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	created := mustCreate(t, m, newAgent("alpha"))
	created.Name = "mutated outside the store"

	got, err := m.GetAgent(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAgent() error = %v", err)
	}
	if got.Name != "Agent alpha" {
		t.Errorf("Name = %q, caller mutation leaked into the store", got.Name)
	}
}

// ─── Apps ────────────────────────────────────────────────────

func TestAppCRUD(t *testing.T) {
	m := NewMemoryStore("")
	defer m.Close()
	ctx := context.Background()

	app, err := m.CreateApp(ctx, &models.AppRegistration{Slug: "billing", Name: "Billing", RepoPath: "/srv/billing"})
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}
	if app.ID == "" {
		t.Error("ID not assigned")
	}

	if _, err := m.CreateApp(ctx, &models.AppRegistration{Slug: "billing"}); err == nil {
		t.Error("duplicate CreateApp() error = nil, want conflict")
	}

	bySlug, err := m.GetAppBySlug(ctx, "billing")
	if err != nil {
		t.Fatalf("GetAppBySlug() error = %v", err)
	}
	if bySlug.ID != app.ID {
		t.Errorf("ID = %q, want %q", bySlug.ID, app.ID)
	}

	now := time.Now().UTC()
	bySlug.LastSyncAt = &now
	bySlug.LastSyncStatus = models.SyncStatusSuccess
	updated, err := m.UpdateApp(ctx, bySlug)
	if err != nil {
		t.Fatalf("UpdateApp() error = %v", err)
	}
	if updated.LastSyncStatus != models.SyncStatusSuccess {
		t.Errorf("LastSyncStatus = %q, want success", updated.LastSyncStatus)
	}

	apps, err := m.ListApps(ctx)
	if err != nil {
		t.Fatalf("ListApps() error = %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("len = %d, want 1", len(apps))
	}
}

// ─── Persistence ─────────────────────────────────────────────

func TestSnapshotReloadRebuildsIndexes(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewMemoryStore(dir)
	created := mustCreate(t, first, newAgent("alpha"))
	if _, err := first.CreateApp(ctx, &models.AppRegistration{Slug: "billing", Name: "Billing"}); err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := NewMemoryStore(dir)
	defer second.Close()

	got, err := second.GetAgent(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAgent() after reload error = %v", err)
	}
	if got.Slug != "alpha" {
		t.Errorf("Slug = %q, want alpha", got.Slug)
	}

	// The slug index is derived state; it must be rebuilt from the snapshot.
	if _, err := second.GetAgentBySlug(ctx, "alpha", ""); err != nil {
		t.Errorf("GetAgentBySlug() after reload error = %v", err)
	}
	if _, err := second.CreateAgent(ctx, newAgent("alpha")); err == nil {
		t.Error("CreateAgent(alpha) after reload = nil error, want conflict")
	}

	if _, err := second.GetAppBySlug(ctx, "billing"); err != nil {
		t.Errorf("GetAppBySlug() after reload error = %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	m := NewMemoryStore("")
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
