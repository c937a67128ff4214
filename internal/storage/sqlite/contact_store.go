package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/pkg/types"
)

// ContactStore implements storage.ContactStore and storage.CardStore using SQLite.
type ContactStore struct {
	db *sql.DB
}

// NewContactStore opens a SQLite database, configures WAL mode, and creates
// the schema.
func NewContactStore(dsn string) (*ContactStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Connections live for the lifetime of the store.

	// Enable WAL mode for better read concurrency (readers don't block writers).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	// Set busy timeout so that callers wait instead of getting an immediate
	// SQLITE_BUSY error when the connection is held by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &ContactStore{db: db}, nil
}

// GetDB returns the underlying database connection.
// Used by the config layer for the settings table.
func (s *ContactStore) GetDB() *sql.DB {
	return s.db
}

// Close releases the database connection.
func (s *ContactStore) Close() error {
	return s.db.Close()
}

// contactColumns is the canonical column list shared by all contact queries.
const contactColumns = `
	id, name, event, industry, interests, is_quick_tag,
	follow_up_status, follow_up_due_date, follow_up_date, snoozed_until,
	email, phone, company, title, notes,
	tagged_at, created_at, updated_at
`

// Store creates or updates a contact (upsert semantics).
func (s *ContactStore) Store(ctx context.Context, contact *types.Contact) error {
	if contact == nil {
		return storage.ErrInvalidInput
	}

	if contact.ID == "" {
		return fmt.Errorf("%w: contact ID is required", storage.ErrInvalidInput)
	}

	if contact.Name == "" {
		return fmt.Errorf("%w: contact name is required", storage.ErrInvalidInput)
	}

	if !types.IsValidFollowUpStatus(contact.FollowUpStatus) {
		return fmt.Errorf("%w: unknown follow-up status %q", storage.ErrInvalidInput, contact.FollowUpStatus)
	}

	var interestsJSON []byte
	if len(contact.Interests) > 0 {
		var err error
		interestsJSON, err = json.Marshal(contact.Interests)
		if err != nil {
			return fmt.Errorf("sqlite: failed to marshal interests: %w", err)
		}
	}

	now := time.Now()
	if contact.TaggedAt.IsZero() {
		contact.TaggedAt = now
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	if contact.UpdatedAt.IsZero() {
		contact.UpdatedAt = now
	}
	if contact.FollowUpStatus == "" {
		contact.FollowUpStatus = types.FollowUpNone
	}

	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			event = excluded.event,
			industry = excluded.industry,
			interests = excluded.interests,
			is_quick_tag = excluded.is_quick_tag,
			follow_up_status = excluded.follow_up_status,
			follow_up_due_date = excluded.follow_up_due_date,
			follow_up_date = excluded.follow_up_date,
			snoozed_until = excluded.snoozed_until,
			email = excluded.email,
			phone = excluded.phone,
			company = excluded.company,
			title = excluded.title,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	// tagged_at is deliberately absent from the UPDATE set: it is immutable
	// once the contact exists.

	_, err := s.db.ExecContext(ctx, query,
		contact.ID,
		contact.Name,
		contact.Event,
		contact.Industry,
		nullString(string(interestsJSON)),
		contact.IsQuickTag,
		string(contact.Status()),
		nullTime(contact.FollowUpDueDate),
		nullTime(contact.FollowUpDate),
		nullTime(contact.SnoozedUntil),
		contact.Email,
		contact.Phone,
		contact.Company,
		contact.Title,
		contact.Notes,
		contact.TaggedAt,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to store contact: %w", err)
	}

	return nil
}

// Get retrieves a contact by ID.
func (s *ContactStore) Get(ctx context.Context, id string) (*types.Contact, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: contact ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = ?", id)

	contact, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get contact: %w", err)
	}

	return contact, nil
}

// List retrieves contacts with pagination and filtering.
func (s *ContactStore) List(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Contact], error) {
	// Normalize options (must be done before ORDER BY construction to prevent SQL injection)
	opts.Normalize()

	var conditions []string
	var args []interface{}

	if opts.Event != "" {
		conditions = append(conditions, "event = ?")
		args = append(args, opts.Event)
	}

	if opts.Industry != "" {
		conditions = append(conditions, "industry = ?")
		args = append(args, opts.Industry)
	}

	if opts.Status != "" {
		conditions = append(conditions, "follow_up_status = ?")
		args = append(args, string(opts.Status))
	}

	if !opts.TaggedAfter.IsZero() {
		conditions = append(conditions, "tagged_at > ?")
		args = append(args, opts.TaggedAfter)
	}

	if !opts.TaggedBefore.IsZero() {
		conditions = append(conditions, "tagged_at < ?")
		args = append(args, opts.TaggedBefore)
	}

	if opts.QuickTagOnly {
		conditions = append(conditions, "is_quick_tag = 1")
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total matching rows for pagination metadata.
	var total int
	countQuery := "SELECT COUNT(*) FROM contacts" + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("sqlite: failed to count contacts: %w", err)
	}

	// Sorting is safe from SQL injection due to the Normalize() whitelist.
	query := "SELECT " + contactColumns + " FROM contacts" + whereClause +
		fmt.Sprintf(" ORDER BY %s %s", opts.SortBy, opts.SortOrder) +
		" LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []types.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan contact: %w", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read contact rows: %w", err)
	}

	return &storage.PaginatedResult[types.Contact]{
		Items:    contacts,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(contacts) < total,
	}, nil
}

// All returns a point-in-time snapshot of every contact, tagged_at descending.
func (s *ContactStore) All(ctx context.Context) ([]types.Contact, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+contactColumns+" FROM contacts ORDER BY tagged_at DESC")
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to snapshot contacts: %w", err)
	}
	defer rows.Close()

	var contacts []types.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan contact: %w", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read contact rows: %w", err)
	}

	return contacts, nil
}

// Update modifies an existing contact.
func (s *ContactStore) Update(ctx context.Context, contact *types.Contact) error {
	if contact == nil || contact.ID == "" {
		return fmt.Errorf("%w: contact ID is required", storage.ErrInvalidInput)
	}

	if !types.IsValidFollowUpStatus(contact.FollowUpStatus) {
		return fmt.Errorf("%w: unknown follow-up status %q", storage.ErrInvalidInput, contact.FollowUpStatus)
	}

	var interestsJSON []byte
	if len(contact.Interests) > 0 {
		var err error
		interestsJSON, err = json.Marshal(contact.Interests)
		if err != nil {
			return fmt.Errorf("sqlite: failed to marshal interests: %w", err)
		}
	}

	contact.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE contacts SET
			name = ?,
			event = ?,
			industry = ?,
			interests = ?,
			is_quick_tag = ?,
			follow_up_status = ?,
			follow_up_due_date = ?,
			follow_up_date = ?,
			snoozed_until = ?,
			email = ?,
			phone = ?,
			company = ?,
			title = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ?
	`,
		contact.Name,
		contact.Event,
		contact.Industry,
		nullString(string(interestsJSON)),
		contact.IsQuickTag,
		string(contact.Status()),
		nullTime(contact.FollowUpDueDate),
		nullTime(contact.FollowUpDate),
		nullTime(contact.SnoozedUntil),
		contact.Email,
		contact.Phone,
		contact.Company,
		contact.Title,
		contact.Notes,
		contact.UpdatedAt,
		contact.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Delete removes a contact by ID.
func (s *ContactStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: contact ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete contact: %w", err)
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

// BulkUpdateStatus transitions the follow-up status of every listed contact.
// Missing IDs are skipped. Returns the count of updated contacts.
func (s *ContactStore) BulkUpdateStatus(ctx context.Context, ids []string, status types.FollowUpStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	if !types.IsValidFollowUpStatus(status) {
		return 0, fmt.Errorf("%w: unknown follow-up status %q", storage.ErrInvalidInput, status)
	}

	now := time.Now()
	updated := 0

	// Each transition runs through the domain helper so the date-field
	// constraints (clear snoozed_until, stamp follow_up_date) stay in one place.
	for _, id := range ids {
		contact, err := s.Get(ctx, id)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return updated, err
		}

		contact.TransitionFollowUp(status, now)

		if err := s.Update(ctx, contact); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanContact.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanContact scans a single contact row in contactColumns order.
func scanContact(row scanner) (*types.Contact, error) {
	var contact types.Contact
	var event, industry, email, phone, company, title, notes sql.NullString
	var interestsJSON sql.NullString
	var status string
	var dueDate, doneDate, snoozedUntil sql.NullTime

	err := row.Scan(
		&contact.ID,
		&contact.Name,
		&event,
		&industry,
		&interestsJSON,
		&contact.IsQuickTag,
		&status,
		&dueDate,
		&doneDate,
		&snoozedUntil,
		&email,
		&phone,
		&company,
		&title,
		&notes,
		&contact.TaggedAt,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	contact.Event = event.String
	contact.Industry = industry.String
	contact.Email = email.String
	contact.Phone = phone.String
	contact.Company = company.String
	contact.Title = title.String
	contact.Notes = notes.String
	contact.FollowUpStatus = types.FollowUpStatus(status)
	contact.FollowUpDueDate = timePtr(dueDate)
	contact.FollowUpDate = timePtr(doneDate)
	contact.SnoozedUntil = timePtr(snoozedUntil)

	if interestsJSON.Valid && interestsJSON.String != "" {
		if err := json.Unmarshal([]byte(interestsJSON.String), &contact.Interests); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interests: %w", err)
		}
	}

	return &contact, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
