// Package handlers implements the HTTP handlers for the Agent Control
// Center. All handlers depend on the Store interface and the sync service;
// nothing here touches the filesystem directly.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/advisorhub/advisorhub/agent-control/internal/providers"
	"github.com/advisorhub/advisorhub/agent-control/internal/store"
	"github.com/advisorhub/advisorhub/agent-control/internal/syncer"
	"github.com/advisorhub/advisorhub/agent-control/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Store    store.Store
	Syncer   *syncer.Service
	Adapters *providers.Registry
}

// New creates a Handlers instance with all dependencies.
func New(s store.Store, sy *syncer.Service, reg *providers.Registry) *Handlers {
	return &Handlers{Store: s, Syncer: sy, Adapters: reg}
}

// ── Agent Handlers ───────────────────────────────────────────

func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AgentFilter{
		Provider:  models.Provider(q.Get("provider")),
		AgentType: models.AgentType(q.Get("agentType")),
		Status:    models.AgentStatus(q.Get("status")),
		AppID:     q.Get("appRegistryId"),
		Search:    q.Get("search"),
	}
	agents, err := h.Store.ListAgents(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if agents == nil {
		agents = []models.AgentContract{}
	}
	respondJSON(w, http.StatusOK, agents)
}

func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req models.AgentContract
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.ID = uuid.New().String()
	if req.Status == "" {
		req.Status = models.AgentStatusDraft
	}
	if req.Scope == "" {
		req.Scope = models.ScopePlatform
	}
	// UI-created agents have no source file until their first push.
	req.SourceFileHash = ""
	req.SourceFilePath = ""
	req.LastSyncedAt = nil

	if errs := models.Validate(&req); errs != nil {
		respondFieldErrors(w, errs)
		return
	}
	if err := h.validateProviderRules(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Store.CreateAgent(r.Context(), &req)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	log.Info().Str("agent", created.Slug).Str("id", created.ID).Msg("Agent created")
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	appID := r.URL.Query().Get("appRegistryId")

	agent, err := h.Store.GetAgentBySlug(r.Context(), slug, appID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, agent)
}

func (h *Handlers) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	appID := r.URL.Query().Get("appRegistryId")

	agent, err := h.Store.GetAgentBySlug(r.Context(), slug, appID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	var req models.AgentContract
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Identity, governance history and sync provenance are not editable
	// through this endpoint.
	req.ID = agent.ID
	req.Slug = agent.Slug
	req.AppID = agent.AppID
	req.Status = agent.Status
	req.Version = agent.Version
	req.SourceFileHash = agent.SourceFileHash
	req.SourceFilePath = agent.SourceFilePath
	req.LastSyncedAt = agent.LastSyncedAt

	if errs := models.Validate(&req); errs != nil {
		respondFieldErrors(w, errs)
		return
	}
	if err := h.validateProviderRules(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.Store.UpdateAgent(r.Context(), &req)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	appID := r.URL.Query().Get("appRegistryId")

	agent, err := h.Store.GetAgentBySlug(r.Context(), slug, appID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if err := h.Store.DeleteAgent(r.Context(), agent.ID); err != nil {
		respondStoreError(w, err)
		return
	}
	log.Info().Str("agent", slug).Msg("Agent deleted")
	w.WriteHeader(http.StatusNoContent)
}

// agentActionRequest is the body of POST /agents/{slug}.
type agentActionRequest struct {
	Action   string `json:"action"`
	Approver string `json:"approver,omitempty"`
}

// AgentAction mutates governance status (approve/unapprove/deprecate/
// archive) or triggers a push for one agent.
func (h *Handlers) AgentAction(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	appID := r.URL.Query().Get("appRegistryId")

	agent, err := h.Store.GetAgentBySlug(r.Context(), slug, appID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	var req agentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "push":
		pushed, err := h.Syncer.Push(r.Context(), agent.ID)
		if err != nil {
			respondSyncError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, pushed)
		return

	case "approve":
		if req.Approver == "" {
			respondError(w, http.StatusBadRequest, "approve requires an approver")
			return
		}
		h.transition(w, r, agent, models.AgentStatusActive, req)
	case "unapprove":
		h.transition(w, r, agent, models.AgentStatusDraft, req)
	case "deprecate":
		h.transition(w, r, agent, models.AgentStatusDeprecated, req)
	case "archive":
		h.transition(w, r, agent, models.AgentStatusArchived, req)
	default:
		respondError(w, http.StatusBadRequest, "unknown action "+req.Action)
	}
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, agent *models.AgentContract, to models.AgentStatus, req agentActionRequest) {
	if !models.CanTransition(agent.Status, to) {
		respondError(w, http.StatusConflict,
			"illegal status transition "+string(agent.Status)+" -> "+string(to))
		return
	}
	agent.Status = to
	updated, err := h.Store.UpdateAgent(r.Context(), agent)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	log.Info().
		Str("agent", agent.Slug).
		Str("status", string(to)).
		Str("approver", req.Approver).
		Msg("Agent status changed")
	respondJSON(w, http.StatusOK, updated)
}

// validateProviderRules applies the provider adapter's tool and config
// validation, collecting all violations into one error.
func (h *Handlers) validateProviderRules(c *models.AgentContract) error {
	if c.Provider == "" {
		return nil
	}
	adapter, err := h.Adapters.Resolve(c.Provider)
	if err != nil {
		return err
	}
	var errs []error
	errs = append(errs, adapter.ValidateTools(c.Tools)...)
	errs = append(errs, adapter.ValidateConfig(c.Config)...)
	return errors.Join(errs...)
}

// ── Sync Handlers ────────────────────────────────────────────

type syncRequest struct {
	Action    string `json:"action,omitempty"`
	Direction string `json:"direction"`
}

// SyncAll triggers a pull for all registered apps.
func (h *Handlers) SyncAll(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Direction != "pull" {
		respondError(w, http.StatusBadRequest, "only direction \"pull\" is supported; push targets a single agent")
		return
	}

	results, err := h.Syncer.PullAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// AppAction triggers a single-app pull.
func (h *Handlers) AppAction(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action != "sync" || req.Direction != "pull" {
		respondError(w, http.StatusBadRequest, "unsupported action; expected {action: \"sync\", direction: \"pull\"}")
		return
	}

	result, err := h.Syncer.Pull(r.Context(), slug)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ── App Registry Handlers ────────────────────────────────────

func (h *Handlers) ListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.ListApps(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if apps == nil {
		apps = []models.AppRegistration{}
	}
	respondJSON(w, http.StatusOK, apps)
}

func (h *Handlers) RegisterApp(w http.ResponseWriter, r *http.Request) {
	var req models.AppRegistration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Slug == "" {
		respondError(w, http.StatusBadRequest, "slug is required")
		return
	}
	req.ID = uuid.New().String()
	req.CreatedAt = time.Now().UTC()

	created, err := h.Store.CreateApp(r.Context(), &req)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	log.Info().Str("app", created.Slug).Str("repo", created.RepoPath).Msg("App registered")
	respondJSON(w, http.StatusCreated, created)
}

// ── Response helpers ─────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFieldErrors renders a 400 with the per-field error list so the UI
// can highlight specific inputs.
func respondFieldErrors(w http.ResponseWriter, errs models.FieldErrors) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "contract validation failed",
		"fields": errs,
	})
}

func respondStoreError(w http.ResponseWriter, err error) {
	var notFound *store.ErrNotFound
	var conflict *store.ErrConflict
	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondSyncError maps push failures: validation problems are the
// caller's to fix (400), filesystem and persistence failures are ours (500).
func respondSyncError(w http.ResponseWriter, err error) {
	var fieldErrs models.FieldErrors
	var rangeErr *providers.RangeError
	var toolErr *providers.InvalidToolError
	var incompleteErr *providers.IncompleteDataError
	var repoErr *syncer.RepoPathError
	var notFound *store.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &fieldErrs),
		errors.As(err, &rangeErr),
		errors.As(err, &toolErr),
		errors.As(err, &incompleteErr),
		errors.As(err, &repoErr):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
