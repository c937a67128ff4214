package handlers

import (
	"net/http"

	"github.com/rolohq/rolo/internal/analytics"
	"github.com/rolohq/rolo/internal/storage"
)

// EventsHandler handles the event aggregation endpoint.
type EventsHandler struct {
	store storage.ContactStore
}

// NewEventsHandler creates a new EventsHandler instance.
func NewEventsHandler(store storage.ContactStore) *EventsHandler {
	return &EventsHandler{store: store}
}

// EventsResponse is the JSON response for GET /api/events.
type EventsResponse struct {
	Events []analytics.EventAggregate `json:"events"`
	Total  int                        `json:"total"`
}

// GetEvents handles GET /api/events - contacts grouped by event, most
// recently active event first. Pass include_contacts=false to strip the
// per-event contact lists and return counts only.
func (h *EventsHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}

	aggregates := analytics.AggregateEvents(contacts)

	if r.URL.Query().Get("include_contacts") == "false" {
		for i := range aggregates {
			aggregates[i].Contacts = nil
		}
	}

	respondJSON(w, http.StatusOK, EventsResponse{
		Events: aggregates,
		Total:  len(aggregates),
	})
}
