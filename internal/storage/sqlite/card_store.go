package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/pkg/types"
)

// StoreCard creates or updates a card variant (upsert semantics).
// Marking a variant as default clears the flag on every other variant so at
// most one default exists.
func (s *ContactStore) StoreCard(ctx context.Context, card *types.CardVariant) error {
	if card == nil {
		return storage.ErrInvalidInput
	}

	if card.ID == "" {
		return fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}

	if card.Name == "" {
		return fmt.Errorf("%w: card name is required", storage.ErrInvalidInput)
	}

	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now

	if card.Front == "" {
		card.Front = "{}"
	}
	if card.Back == "" {
		card.Back = "{}"
	}

	if card.IsDefault {
		if _, err := s.db.ExecContext(ctx, "UPDATE cards SET is_default = 0 WHERE id != ?", card.ID); err != nil {
			return fmt.Errorf("sqlite: failed to clear default card: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, name, front, back, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			front = excluded.front,
			back = excluded.back,
			is_default = excluded.is_default,
			updated_at = excluded.updated_at
	`, card.ID, card.Name, card.Front, card.Back, card.IsDefault, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: failed to store card: %w", err)
	}

	return nil
}

// GetCard retrieves a card variant by ID.
func (s *ContactStore) GetCard(ctx context.Context, id string) (*types.CardVariant, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}

	var card types.CardVariant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, front, back, is_default, created_at, updated_at
		FROM cards WHERE id = ?
	`, id).Scan(&card.ID, &card.Name, &card.Front, &card.Back, &card.IsDefault, &card.CreatedAt, &card.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get card: %w", err)
	}

	return &card, nil
}

// ListCards returns all card variants ordered by updated_at descending.
func (s *ContactStore) ListCards(ctx context.Context) ([]types.CardVariant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, front, back, is_default, created_at, updated_at
		FROM cards ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []types.CardVariant
	for rows.Next() {
		var card types.CardVariant
		if err := rows.Scan(&card.ID, &card.Name, &card.Front, &card.Back, &card.IsDefault, &card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read card rows: %w", err)
	}

	return cards, nil
}

// DeleteCard removes a card variant by ID.
func (s *ContactStore) DeleteCard(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete card: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}
