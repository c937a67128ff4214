// Package storage provides composable storage interfaces for the Rolo CRM.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. The analytics core never
// touches these interfaces directly: callers read a point-in-time snapshot of
// the contact list and hand it to the aggregators as a plain slice.
package storage

import (
	"context"

	"github.com/rolohq/rolo/pkg/types"
)

// ContactStore provides CRUD operations, pagination, and snapshot reads for
// contacts. This is the core storage interface for contact lifecycle management.
type ContactStore interface {
	// Store creates or updates a contact (upsert semantics).
	// If a contact with the same ID exists, it is updated; otherwise a new
	// one is created.
	Store(ctx context.Context, contact *types.Contact) error

	// Get retrieves a contact by ID.
	// Returns ErrNotFound if the contact doesn't exist.
	Get(ctx context.Context, id string) (*types.Contact, error)

	// List retrieves contacts with pagination and filtering.
	List(ctx context.Context, opts ListOptions) (*PaginatedResult[types.Contact], error)

	// All returns a point-in-time snapshot of every contact, ordered by
	// tagged_at descending. This is the read path the aggregators consume;
	// the returned slice is owned by the caller and never shared.
	All(ctx context.Context) ([]types.Contact, error)

	// Update modifies an existing contact.
	// Returns ErrNotFound if the contact doesn't exist.
	Update(ctx context.Context, contact *types.Contact) error

	// Delete removes a contact by ID.
	// Returns ErrNotFound if the contact doesn't exist.
	Delete(ctx context.Context, id string) error

	// BulkUpdateStatus transitions the follow-up status of every listed
	// contact, applying the same date-field constraints as a single-contact
	// transition. Missing IDs are skipped; the count of updated contacts is
	// returned.
	BulkUpdateStatus(ctx context.Context, ids []string, status types.FollowUpStatus) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// CardStore persists named card variants. It is intentionally a simple keyed
// mapping with pass-through mutation; variants have no derived state.
type CardStore interface {
	// StoreCard creates or updates a card variant (upsert semantics).
	StoreCard(ctx context.Context, card *types.CardVariant) error

	// GetCard retrieves a card variant by ID.
	// Returns ErrNotFound if the variant doesn't exist.
	GetCard(ctx context.Context, id string) (*types.CardVariant, error)

	// ListCards returns all card variants ordered by updated_at descending.
	ListCards(ctx context.Context) ([]types.CardVariant, error)

	// DeleteCard removes a card variant by ID.
	// Returns ErrNotFound if the variant doesn't exist.
	DeleteCard(ctx context.Context, id string) error
}
