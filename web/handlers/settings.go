package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/rolohq/rolo/internal/config"
)

// SettingsHandlers serves the runtime config view and persists user settings.
type SettingsHandlers struct {
	config *config.Config
	db     *sql.DB // Optional; nil disables persistence
}

// NewSettingsHandlers creates a new SettingsHandlers instance. db may be nil
// when no settings table is available; updates then only mutate the running
// config.
func NewSettingsHandlers(cfg *config.Config, db *sql.DB) *SettingsHandlers {
	return &SettingsHandlers{config: cfg, db: db}
}

// GetConfig handles GET /api/config - the effective configuration with the
// API token masked.
func (h *SettingsHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ToConfigResponse(h.config))
}

// UpdateSettingsRequest is the request body for PUT /api/settings.
type UpdateSettingsRequest struct {
	UserName *string `json:"user_name,omitempty"`
}

// UpdateSettings handles PUT /api/settings - update persisted user settings.
func (h *SettingsHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if req.UserName != nil {
		h.config.User.UserName = *req.UserName
	}

	if h.db != nil {
		if err := h.config.SaveConfig(h.db); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save settings", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, ToConfigResponse(h.config))
}
