package handlers

import (
	"net/http"

	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

// ══════════════════════════════════════════════════════════════
// ── Runtime Model Router ─────────────────────────────────────
// ══════════════════════════════════════════════════════════════

func (h *Handlers) ResolveRuntime(w http.ResponseWriter, r *http.Request) {
	var req models.RuntimeRequest
	if !decode(w, r, &req) {
		return
	}
	sel, err := h.Runtime.Resolve(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sel)
}

// ValidateRuntime always answers 200; the outcome is in the body.
func (h *Handlers) ValidateRuntime(w http.ResponseWriter, r *http.Request) {
	var req models.RuntimeRequest
	if !decode(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, h.Runtime.Validate(r.Context(), req))
}

func (h *Handlers) ListTiers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roleType, language := q.Get("role_type"), q.Get("language")
	if roleType == "" {
		respondError(w, http.StatusBadRequest, "role_type is required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"role_type": roleType,
		"language":  language,
		"tiers":     h.Runtime.AvailableTiers(r.Context(), roleType, language),
	})
}

func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	if rules == nil {
		rules = []models.RuntimeProfileRule{}
	}
	respondJSON(w, http.StatusOK, rules)
}
