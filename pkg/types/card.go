package types

import "time"

// CardVariant represents a named two-sided digital business card design.
// The front and back payloads are opaque JSON documents produced by the card
// builder UI; the server persists and returns them without interpretation.
type CardVariant struct {
	ID        string    `json:"id"`         // Unique identifier (uuid)
	Name      string    `json:"name"`       // User-chosen variant name
	Front     string    `json:"front"`      // Opaque JSON payload for the front side
	Back      string    `json:"back"`       // Opaque JSON payload for the back side
	IsDefault bool      `json:"is_default"` // Whether this variant is the active card
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
