package handlers

import (
	"net/http"
	"time"

	"github.com/rolohq/rolo/internal/analytics"
	"github.com/rolohq/rolo/internal/storage"
)

// AnalyticsHandler serves the derived-metrics snapshot. Snapshots are
// memoized by content fingerprint and calendar day, so repeated dashboard
// polls against an unchanged contact list cost one cache lookup.
type AnalyticsHandler struct {
	store storage.ContactStore
	cache *analytics.SnapshotCache
}

// NewAnalyticsHandler creates a new AnalyticsHandler instance.
func NewAnalyticsHandler(store storage.ContactStore) (*AnalyticsHandler, error) {
	cache, err := analytics.NewSnapshotCache()
	if err != nil {
		return nil, err
	}
	return &AnalyticsHandler{store: store, cache: cache}, nil
}

// GetAnalytics handles GET /api/analytics - the full statistics snapshot.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}

	snapshot := h.cache.Snapshot(contacts, time.Now())
	respondJSON(w, http.StatusOK, snapshot)
}

// UrgencyEntry pairs a contact ID with its urgency classification.
type UrgencyEntry struct {
	ContactID string            `json:"contact_id"`
	Name      string            `json:"name"`
	Urgency   analytics.Urgency `json:"urgency"`
	Badge     string            `json:"badge"`
}

// GetFollowUps handles GET /api/followups - every contact that currently
// carries an urgency badge, overdue first.
func (h *AnalyticsHandler) GetFollowUps(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}

	now := time.Now()
	var overdue, dueSoon, fresh []UrgencyEntry
	for i := range contacts {
		c := &contacts[i]
		u := analytics.ClassifyUrgency(c, now)
		entry := UrgencyEntry{
			ContactID: c.ID,
			Name:      c.Name,
			Urgency:   u,
			Badge:     analytics.StatusBadge(c, now),
		}
		switch u.Class {
		case analytics.UrgencyOverdue:
			overdue = append(overdue, entry)
		case analytics.UrgencyDueSoon:
			dueSoon = append(dueSoon, entry)
		case analytics.UrgencyNew:
			fresh = append(fresh, entry)
		}
	}

	entries := make([]UrgencyEntry, 0, len(overdue)+len(dueSoon)+len(fresh))
	entries = append(entries, overdue...)
	entries = append(entries, dueSoon...)
	entries = append(entries, fresh...)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"followups": entries,
		"total":     len(entries),
	})
}
