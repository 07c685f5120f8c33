package handlers

import (
	"net/http"

	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
)

// ══════════════════════════════════════════════════════════════
// ── Versions ─────────────────────────────────────────────────
// ══════════════════════════════════════════════════════════════

type compareRequest struct {
	V1 string `json:"v1"`
	V2 string `json:"v2"`
}

func (h *Handlers) CompareVersions(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := models.CompareVersions(req.V1, req.V2)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"result": res})
}

type canUpgradeRequest struct {
	Current     string `json:"current"`
	Candidate   string `json:"candidate"`
	AutoUpgrade bool   `json:"auto_upgrade"`
}

func (h *Handlers) CanUpgrade(w http.ResponseWriter, r *http.Request) {
	var req canUpgradeRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := models.CanAutoUpgrade(req.Current, req.Candidate, req.AutoUpgrade)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"can_upgrade": ok})
}

type incrementRequest struct {
	Current  string `json:"current"`
	BumpType string `json:"bump_type"`
}

func (h *Handlers) IncrementVersion(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := models.IncrementVersion(req.Current, req.BumpType)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"version": v})
}
