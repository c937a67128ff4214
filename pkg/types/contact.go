package types

import "time"

// Contact represents a single person tagged by the user at an event.
// Contacts are the atomic units of the CRM, carrying the tagging context
// (event, industry, interests) and the follow-up workflow state.
type Contact struct {
	// Core identification fields
	ID        string    `json:"id"`         // Unique identifier (uuid)
	Name      string    `json:"name"`       // Display name, never empty
	TaggedAt  time.Time `json:"tagged_at"`  // When the contact was tagged; set once, never mutated
	CreatedAt time.Time `json:"created_at"` // When the record was created in the store
	UpdatedAt time.Time `json:"updated_at"` // Last update timestamp

	// Tagging context
	Event      string   `json:"event,omitempty"`     // Free-text event label; empty folds into UnspecifiedEvent
	Industry   string   `json:"industry,omitempty"`  // Free-text category label
	Interests  []string `json:"interests,omitempty"` // Ordered tags; duplicates preserved
	IsQuickTag bool     `json:"is_quick_tag"`        // Whether the contact was captured via quick tag

	// Follow-up workflow state. Exactly one status holds at a time; the date
	// fields are meaningful only under their corresponding status but stale
	// values from a prior status may survive and must be tolerated by readers.
	FollowUpStatus  FollowUpStatus `json:"follow_up_status"`             // pending, done, snoozed, none
	FollowUpDueDate *time.Time     `json:"follow_up_due_date,omitempty"` // Due date while pending
	FollowUpDate    *time.Time     `json:"follow_up_date,omitempty"`     // Completion instant, stamped on transition to done
	SnoozedUntil    *time.Time     `json:"snoozed_until,omitempty"`      // Deferral date while snoozed

	// Contact details, opaque to the aggregation core
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Title   string `json:"title,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Status returns the contact's follow-up status, normalizing an unset value
// to FollowUpNone.
func (c *Contact) Status() FollowUpStatus {
	if c.FollowUpStatus == "" {
		return FollowUpNone
	}
	return c.FollowUpStatus
}

// EventName returns the contact's event label, folding an empty label into
// UnspecifiedEvent so grouping is total.
func (c *Contact) EventName() string {
	if c.Event == "" {
		return UnspecifiedEvent
	}
	return c.Event
}

// TransitionFollowUp moves the contact to the given follow-up status and
// maintains the mutually constrained date fields: SnoozedUntil is cleared
// whenever the status leaves snoozed, and FollowUpDate is stamped with the
// transition instant whenever the status becomes done.
func (c *Contact) TransitionFollowUp(status FollowUpStatus, now time.Time) {
	prev := c.Status()
	if status == "" {
		status = FollowUpNone
	}

	if prev == FollowUpSnoozed && status != FollowUpSnoozed {
		c.SnoozedUntil = nil
	}

	if status == FollowUpDone && prev != FollowUpDone {
		done := now
		c.FollowUpDate = &done
	}

	c.FollowUpStatus = status
	c.UpdatedAt = now
}
