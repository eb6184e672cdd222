package handler

import (
	"net/http"

	"nexus-capture/internal/domain"
)

// SettingsHandler handles settings and upstream status requests
type SettingsHandler struct {
	settingsRepo  domain.SettingsRepository
	healthService domain.HealthService
	logger        domain.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsRepo domain.SettingsRepository, healthService domain.HealthService, logger domain.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsRepo:  settingsRepo,
		healthService: healthService,
		logger:        logger,
	}
}

// GetSettings returns the settings without the API secret
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsRepo.Get(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Public())
}

// UpdateSettings merges the request body into the saved settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	settings, err := h.settingsRepo.Update(r.Context(), patch)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Public())
}

// GetStatus reports whether the NEXUS API is reachable
func (h *SettingsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.healthService.Check(r.Context()))
}
