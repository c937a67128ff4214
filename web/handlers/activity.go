package handlers

import (
	"net/http"
	"time"

	"github.com/rolohq/rolo/internal/analytics"
	"github.com/rolohq/rolo/internal/storage"
)

// ActivityHandler handles the /api/activity endpoint.
type ActivityHandler struct {
	store storage.ContactStore
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store storage.ContactStore) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// ActivityResponse is the JSON response for GET /api/activity.
type ActivityResponse struct {
	Points []analytics.ActivityPoint `json:"points"`
	Days   int                       `json:"days"`
}

// GetActivity handles GET /api/activity?days=N - the per-day tagging series,
// optionally restricted to the trailing N days. Days with no activity are
// absent from the series, matching the snapshot's activity data.
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	days := parseInt(r.URL.Query().Get("days"), 0)

	contacts, err := h.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}

	now := time.Now()
	points := analytics.BuildSnapshot(contacts, now).ActivityData

	if days > 0 {
		cutoff := now.AddDate(0, 0, -days).Format("2006-01-02")
		filtered := points[:0]
		for _, p := range points {
			if p.Date >= cutoff {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}

	respondJSON(w, http.StatusOK, ActivityResponse{
		Points: points,
		Days:   days,
	})
}
