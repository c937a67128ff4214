package storage

import (
	"errors"
	"time"

	"github.com/rolohq/rolo/pkg/types"
)

var (
	// ErrNotFound is returned when no contact or card matches the given ID.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned for records that fail validation.
	ErrInvalidInput = errors.New("invalid input")
)

// PaginatedResult is one page of a listing plus enough metadata for a
// client to page through the rest.
type PaginatedResult[T any] struct {
	Items    []T  // results for this page
	Total    int  // number of matches across all pages
	Page     int  // 1-indexed page number
	PageSize int  // items per page
	HasMore  bool // whether pages remain after this one
}

// ListOptions carries pagination, sorting, and contact filters for List.
// Zero values mean "no filter"; call Normalize before use.
type ListOptions struct {
	Page      int    // 1-indexed, defaults to 1
	Limit     int    // per-page size, defaults to 20, capped at 200
	SortBy    string // column name, whitelisted in Normalize
	SortOrder string // "asc" or "desc", defaults to "desc"

	Event    string // exact event label match
	Industry string // exact industry match

	// Status restricts to one follow-up status when non-empty.
	Status types.FollowUpStatus

	// Tagged-time window. Both bounds are strict and independently optional.
	TaggedAfter  time.Time
	TaggedBefore time.Time

	// QuickTagOnly restricts results to quick-tagged contacts.
	QuickTagOnly bool
}

// sortColumns are the only values SortBy may take; anything else falls back
// to tagged_at. Interpolating a whitelisted name keeps ORDER BY injection-safe.
var sortColumns = map[string]bool{
	"tagged_at":  true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"event":      true,
	"industry":   true,
}

// Normalize clamps pagination and replaces invalid sort settings with the
// defaults. Stores call this before building queries.
func (o *ListOptions) Normalize() {
	if !sortColumns[o.SortBy] {
		o.SortBy = "tagged_at"
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 20
	}
	if o.Limit > 200 {
		o.Limit = 200
	}
}

// Offset converts page/limit into a SQL OFFSET.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}
