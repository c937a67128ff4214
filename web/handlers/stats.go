package handlers

import (
	"net/http"
	"time"

	"github.com/rolohq/rolo/internal/analytics"
	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/internal/storage/sqlite"
)

// StatsHandler handles statistics endpoint requests.
type StatsHandler struct {
	store storage.ContactStore
}

// NewStatsHandler creates a new StatsHandler instance.
func NewStatsHandler(store storage.ContactStore) *StatsHandler {
	return &StatsHandler{store: store}
}

// GetStats handles GET /api/stats - returns headline counts for the dashboard.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.store.List(ctx, storage.ListOptions{Limit: 1})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count contacts", err)
		return
	}

	// Distinct-value and card counts come straight from SQL when the store
	// is SQLite-backed; other engines fall back to zero rather than failing
	// the whole endpoint.
	events := 0
	industries := 0
	cards := 0
	quickTagged := 0

	if sqliteStore, ok := h.store.(*sqlite.ContactStore); ok {
		db := sqliteStore.GetDB()

		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(DISTINCT event) FROM contacts WHERE event != ''").Scan(&events); err != nil {
			// Missing counts don't fail the request
			events = 0
		}
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(DISTINCT industry) FROM contacts WHERE industry != ''").Scan(&industries); err != nil {
			industries = 0
		}
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM cards").Scan(&cards); err != nil {
			cards = 0
		}
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM contacts WHERE is_quick_tag = 1").Scan(&quickTagged); err != nil {
			quickTagged = 0
		}
	}

	// Pending-due is urgency-derived, so it goes through the classifier
	// rather than duplicating the date rules in SQL.
	pendingDue := 0
	contacts, err := h.store.All(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}
	now := time.Now()
	for i := range contacts {
		u := analytics.ClassifyUrgency(&contacts[i], now)
		if u.Class == analytics.UrgencyOverdue || u.Class == analytics.UrgencyDueSoon {
			pendingDue++
		}
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		Contacts:    result.Total,
		Events:      events,
		Industries:  industries,
		Cards:       cards,
		PendingDue:  pendingDue,
		QuickTagged: quickTagged,
	})
}
