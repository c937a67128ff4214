package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rolohq/rolo/internal/config"
	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/pkg/types"
)

// ContactHandlers contains HTTP handlers for the contact REST API.
type ContactHandlers struct {
	store  storage.ContactStore
	config *config.Config
	hub    *WebSocketHub // Optional; nil disables change broadcasts
}

// NewContactHandlers creates a new ContactHandlers instance.
func NewContactHandlers(store storage.ContactStore, cfg *config.Config) *ContactHandlers {
	return &ContactHandlers{
		store:  store,
		config: cfg,
	}
}

// SetHub attaches a WebSocket hub so mutations broadcast change events.
func (h *ContactHandlers) SetHub(hub *WebSocketHub) {
	h.hub = hub
}

func (h *ContactHandlers) notifyChange(eventType, contactID string) {
	if h.hub != nil {
		h.hub.BroadcastChange(eventType, contactID)
	}
}

// ListContacts handles GET /api/contacts - list contacts with pagination and filtering.
func (h *ContactHandlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := storage.ListOptions{
		Page:         parseInt(q.Get("page"), 1),
		Limit:        parseInt(q.Get("limit"), 20),
		SortBy:       q.Get("sort_by"),
		SortOrder:    q.Get("sort_order"),
		Event:        q.Get("event"),
		Industry:     q.Get("industry"),
		Status:       types.FollowUpStatus(q.Get("status")),
		QuickTagOnly: q.Get("quick_tag") == "true",
	}

	if v := q.Get("tagged_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid tagged_after timestamp", err)
			return
		}
		opts.TaggedAfter = t
	}
	if v := q.Get("tagged_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid tagged_before timestamp", err)
			return
		}
		opts.TaggedBefore = t
	}

	if opts.Status != "" && !types.IsValidFollowUpStatus(opts.Status) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown follow-up status %q", opts.Status), nil)
		return
	}

	opts.Normalize()

	result, err := h.store.List(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetContact handles GET /api/contacts/{id} - get a single contact by ID.
func (h *ContactHandlers) GetContact(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "contact ID is required", nil)
		return
	}

	contact, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "contact not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get contact", err)
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

// CreateContactRequest represents the request body for creating a contact.
type CreateContactRequest struct {
	Name            string     `json:"name"`
	Event           string     `json:"event,omitempty"`
	Industry        string     `json:"industry,omitempty"`
	Interests       []string   `json:"interests,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Company         string     `json:"company,omitempty"`
	Title           string     `json:"title,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	IsQuickTag      bool       `json:"is_quick_tag,omitempty"`
	FollowUpStatus  string     `json:"follow_up_status,omitempty"`
	FollowUpDueDate *time.Time `json:"follow_up_due_date,omitempty"`
	TaggedAt        *time.Time `json:"tagged_at,omitempty"`
}

// CreateContact handles POST /api/contacts - tag a new contact.
func (h *ContactHandlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	status := types.FollowUpStatus(req.FollowUpStatus)
	if !types.IsValidFollowUpStatus(status) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown follow-up status %q", req.FollowUpStatus), nil)
		return
	}

	now := time.Now()
	contact := &types.Contact{
		ID:              generateContactID(),
		Name:            req.Name,
		Event:           req.Event,
		Industry:        req.Industry,
		Interests:       req.Interests,
		Email:           req.Email,
		Phone:           req.Phone,
		Company:         req.Company,
		Title:           req.Title,
		Notes:           req.Notes,
		IsQuickTag:      req.IsQuickTag,
		FollowUpStatus:  status,
		FollowUpDueDate: req.FollowUpDueDate,
		TaggedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The tag time is client-supplied for delayed entry (badge scans typed in
	// later) but never mutable after creation.
	if req.TaggedAt != nil && !req.TaggedAt.IsZero() {
		contact.TaggedAt = *req.TaggedAt
	}

	if err := h.store.Store(r.Context(), contact); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid contact", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create contact", err)
		return
	}

	h.notifyChange("contact.created", contact.ID)
	respondJSON(w, http.StatusCreated, contact)
}

// UpdateContactRequest represents the request body for updating a contact.
// All fields are optional for partial updates.
type UpdateContactRequest struct {
	Name            *string     `json:"name,omitempty"`
	Event           *string     `json:"event,omitempty"`
	Industry        *string     `json:"industry,omitempty"`
	Interests       *[]string   `json:"interests,omitempty"`
	Email           *string     `json:"email,omitempty"`
	Phone           *string     `json:"phone,omitempty"`
	Company         *string     `json:"company,omitempty"`
	Title           *string     `json:"title,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	FollowUpStatus  *string     `json:"follow_up_status,omitempty"`
	FollowUpDueDate **time.Time `json:"follow_up_due_date,omitempty"`
	SnoozedUntil    **time.Time `json:"snoozed_until,omitempty"`
}

// UpdateContact handles PUT /api/contacts/{id} - update an existing contact.
// Supports partial updates (only updates fields that are provided). Follow-up
// status changes go through the same transition rules as bulk updates, so
// completion dates are stamped and snooze state is cleared consistently.
func (h *ContactHandlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "contact ID is required", nil)
		return
	}

	var req UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	contact, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "contact not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get contact", err)
		return
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Event != nil {
		contact.Event = *req.Event
	}
	if req.Industry != nil {
		contact.Industry = *req.Industry
	}
	if req.Interests != nil {
		contact.Interests = *req.Interests
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Company != nil {
		contact.Company = *req.Company
	}
	if req.Title != nil {
		contact.Title = *req.Title
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	if req.FollowUpDueDate != nil {
		contact.FollowUpDueDate = *req.FollowUpDueDate
	}
	if req.SnoozedUntil != nil {
		contact.SnoozedUntil = *req.SnoozedUntil
	}

	now := time.Now()
	if req.FollowUpStatus != nil {
		status := types.FollowUpStatus(*req.FollowUpStatus)
		if !types.IsValidFollowUpStatus(status) {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("unknown follow-up status %q", *req.FollowUpStatus), nil)
			return
		}
		contact.TransitionFollowUp(status, now)
	} else {
		contact.UpdatedAt = now
	}

	if err := h.store.Update(r.Context(), contact); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "contact not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update contact", err)
		return
	}

	h.notifyChange("contact.updated", contact.ID)
	respondJSON(w, http.StatusOK, contact)
}

// DeleteContact handles DELETE /api/contacts/{id}.
func (h *ContactHandlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "contact ID is required", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "contact not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete contact", err)
		return
	}

	h.notifyChange("contact.deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// BulkUpdateStatus handles POST /api/contacts/bulk-status - transition the
// follow-up status of many contacts at once. Missing IDs are skipped rather
// than failing the whole batch.
func (h *ContactHandlers) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req BulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids is required", nil)
		return
	}

	status := types.FollowUpStatus(req.Status)
	if !types.IsValidFollowUpStatus(status) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown follow-up status %q", req.Status), nil)
		return
	}

	updated, err := h.store.BulkUpdateStatus(r.Context(), req.IDs, status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update contacts", err)
		return
	}

	h.notifyChange("contact.bulk_status", "")
	respondJSON(w, http.StatusOK, BulkStatusResponse{
		Updated: updated,
		Skipped: len(req.IDs) - updated,
	})
}

// extractID extracts a path parameter from the request.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, log but don't try to write another response
		// (headers already sent)
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}

// generateContactID generates a unique contact ID in the format ct:uuid.
func generateContactID() string {
	// Generate short UUID (8 chars)
	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("ct:%s", shortUUID)
}
