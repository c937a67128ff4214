package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/pkg/types"
)

// CardHandlers contains HTTP handlers for the card variant API.
type CardHandlers struct {
	store storage.CardStore
	hub   *WebSocketHub // Optional
}

// NewCardHandlers creates a new CardHandlers instance.
func NewCardHandlers(store storage.CardStore) *CardHandlers {
	return &CardHandlers{store: store}
}

// SetHub attaches a WebSocket hub so mutations broadcast change events.
func (h *CardHandlers) SetHub(hub *WebSocketHub) {
	h.hub = hub
}

func (h *CardHandlers) notifyChange() {
	if h.hub != nil {
		h.hub.BroadcastChange("card.changed", "")
	}
}

// ListCards handles GET /api/cards - list all card variants.
func (h *CardHandlers) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.store.ListCards(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list cards", err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// GetCard handles GET /api/cards/{id}.
func (h *CardHandlers) GetCard(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "card ID is required", nil)
		return
	}

	card, err := h.store.GetCard(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get card", err)
		return
	}

	respondJSON(w, http.StatusOK, card)
}

// CardRequest represents the request body for creating or updating a card variant.
type CardRequest struct {
	Name      string `json:"name"`
	Front     string `json:"front,omitempty"`
	Back      string `json:"back,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
}

// CreateCard handles POST /api/cards - create a new card variant.
func (h *CardHandlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	now := time.Now()
	card := &types.CardVariant{
		ID:        "card:" + uuid.New().String()[:8],
		Name:      req.Name,
		Front:     req.Front,
		Back:      req.Back,
		IsDefault: req.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.StoreCard(r.Context(), card); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create card", err)
		return
	}

	h.notifyChange()
	respondJSON(w, http.StatusCreated, card)
}

// UpdateCard handles PUT /api/cards/{id} - update an existing card variant.
func (h *CardHandlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "card ID is required", nil)
		return
	}

	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	card, err := h.store.GetCard(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get card", err)
		return
	}

	if req.Name != "" {
		card.Name = req.Name
	}
	if req.Front != "" {
		card.Front = req.Front
	}
	if req.Back != "" {
		card.Back = req.Back
	}
	card.IsDefault = req.IsDefault
	card.UpdatedAt = time.Now()

	if err := h.store.StoreCard(r.Context(), card); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update card", err)
		return
	}

	h.notifyChange()
	respondJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/cards/{id}.
func (h *CardHandlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "card ID is required", nil)
		return
	}

	if err := h.store.DeleteCard(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "card not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete card", err)
		return
	}

	h.notifyChange()
	w.WriteHeader(http.StatusNoContent)
}
