package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/scrypster/mnemon/internal/config"
)

// GetSettings handles GET /api/settings - current settings with masked
// credentials.
func (h *AppHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ToSettingsResponse(h.config))
}

// UpdateSettings handles POST /api/settings - apply and persist setting
// changes. Nil fields are left untouched, so a masked credential echoed back
// by the form never overwrites the real one.
func (h *AppHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	h.config.UpdateProviderSettings(func(p *config.ProvidersConfig) {
		if req.TmdbToken != nil {
			p.TmdbToken = *req.TmdbToken
		}
		if req.RawgKey != nil {
			p.RawgKey = *req.RawgKey
		}
		if req.UseFixtures != nil {
			p.UseFixtures = *req.UseFixtures
		}
		if req.AutoCyclePaused != nil {
			p.AutoCyclePaused = *req.AutoCyclePaused
		}
	})
	if req.AutoCyclePaused != nil {
		h.carousel.SetPaused(*req.AutoCyclePaused)
	}

	if err := h.config.SaveConfig(r.Context(), h.store); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings", err)
		return
	}

	// Credential changes invalidate any in-flight search.
	if req.TmdbToken != nil || req.RawgKey != nil || req.UseFixtures != nil {
		h.search.Reset()
	}

	respondJSON(w, http.StatusOK, ToSettingsResponse(h.config))
}
