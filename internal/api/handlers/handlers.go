// Package handlers implements the HTTP handlers of the ZINC admin API.
// Handlers are thin: they decode the request, call one resolver operation
// and map its error to a status code.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jays-visionAI/ZINC-sub003/internal/resolver"
	"github.com/jays-visionAI/ZINC-sub003/internal/router"
	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes caps request bodies; override documents are small.
const maxBodyBytes = 1 << 20

// Handlers holds all handler dependencies.
type Handlers struct {
	Store    store.Store
	Resolver *resolver.Resolver
	Runtime  *router.RuntimeResolver
}

// New creates a new Handlers instance with all dependencies.
func New(s store.Store, res *resolver.Resolver, rt *router.RuntimeResolver) *Handlers {
	return &Handlers{
		Store:    s,
		Resolver: res,
		Runtime:  rt,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps a resolver/store error onto its HTTP status.
func respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	var (
		notFound  *store.ErrNotFound
		noRule    *router.ErrRuleNotFound
		noTier    *router.ErrTierNotFound
		invalid   *models.ErrInvalidArgument
		malformed *models.ErrMalformedVersion
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noRule), errors.As(err, &noTier):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &malformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
