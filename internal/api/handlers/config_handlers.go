package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jays-visionAI/ZINC-sub003/internal/api/middleware"
	"github.com/jays-visionAI/ZINC-sub003/internal/overrides"
	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

// ══════════════════════════════════════════════════════════════
// ── Effective Config ─────────────────────────────────────────
// ══════════════════════════════════════════════════════════════

// checkProject hides instances of other projects. Callers without a project
// see every instance.
func (h *Handlers) checkProject(ctx context.Context, instanceID string) error {
	project := middleware.GetProjectID(ctx)
	if project == "" {
		return nil
	}
	inst, err := h.Store.GetInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if inst.ProjectID != project {
		return &store.ErrNotFound{Entity: "instance", Key: instanceID}
	}
	return nil
}

func (h *Handlers) GetEffectiveConfig(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	engineType := models.EngineType(chi.URLParam(r, "engineType"))
	if err := h.checkProject(r.Context(), instanceID); err != nil {
		respondErr(w, err)
		return
	}

	cfg, err := h.Resolver.GetEffectiveConfig(r.Context(), instanceID, engineType)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// ══════════════════════════════════════════════════════════════
// ── Channel Overrides ────────────────────────────────────────
// ══════════════════════════════════════════════════════════════

func (h *Handlers) GetOverrides(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	if err := h.checkProject(r.Context(), instanceID); err != nil {
		respondErr(w, err)
		return
	}
	cfg, err := h.Store.GetChannelConfig(r.Context(), instanceID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// saveOverridesRequest is the body of PUT /instances/{instanceId}/overrides.
type saveOverridesRequest struct {
	Overrides map[models.EngineType]map[string]interface{} `json:"overrides"`
	UserID    string                                       `json:"user_id,omitempty"`
}

func (h *Handlers) SaveOverrides(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	if err := h.checkProject(r.Context(), instanceID); err != nil {
		respondErr(w, err)
		return
	}

	var req saveOverridesRequest
	if !decode(w, r, &req) {
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = middleware.GetUserID(r.Context())
	}

	if err := h.Resolver.SaveChannelConfig(r.Context(), instanceID, req.Overrides, userID); err != nil {
		respondErr(w, err)
		return
	}

	cfg, err := h.Store.GetChannelConfig(r.Context(), instanceID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (h *Handlers) ResetOverride(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	if err := h.checkProject(r.Context(), instanceID); err != nil {
		respondErr(w, err)
		return
	}
	err := h.Resolver.ResetOverride(r.Context(),
		instanceID,
		models.EngineType(chi.URLParam(r, "engineType")),
		chi.URLParam(r, "field"),
	)
	if err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ResetAllOverrides(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	if err := h.checkProject(r.Context(), instanceID); err != nil {
		respondErr(w, err)
		return
	}
	if err := h.Resolver.ResetAllOverrides(r.Context(), instanceID); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListAllowedOverrides(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, overrides.Allowed())
}

// ══════════════════════════════════════════════════════════════
// ── Platform Documents (read-only) ───────────────────────────
// ══════════════════════════════════════════════════════════════

func (h *Handlers) ListInstances(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListInstances(r.Context(), middleware.GetProjectID(r.Context()))
	if err != nil {
		respondErr(w, err)
		return
	}
	if list == nil {
		list = []models.AgentInstance{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handlers) ListBehaviourPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.Store.ListBehaviourPacks(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	if packs == nil {
		packs = []models.BehaviourPack{}
	}
	respondJSON(w, http.StatusOK, packs)
}
