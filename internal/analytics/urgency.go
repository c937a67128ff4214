package analytics

import (
	"fmt"
	"time"

	"github.com/rolohq/rolo/pkg/types"
)

// UrgencyClass identifies one of the four mutually exclusive urgency states
// derived from a contact's follow-up dates.
type UrgencyClass string

// Urgency class constants, in precedence order
const (
	// UrgencyOverdue indicates the due date is strictly in the past
	UrgencyOverdue UrgencyClass = "overdue"

	// UrgencyDueSoon indicates the due date is within the next 3 days
	UrgencyDueSoon UrgencyClass = "due_soon"

	// UrgencyNew indicates the contact was tagged within the last 2 days
	UrgencyNew UrgencyClass = "new"

	// UrgencyNone indicates no urgency badge should be shown
	UrgencyNone UrgencyClass = "none"
)

// Severity is the presentation tier backing an urgency badge.
type Severity string

// Severity tiers
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityNone   Severity = "none"
)

const (
	// dueSoonWindow is how far ahead a due date still counts as "due soon".
	dueSoonWindow = 3 * 24 * time.Hour

	// newContactWindow is how long after tagging a contact counts as "new".
	newContactWindow = 2 * 24 * time.Hour
)

// Urgency is the presentation-ready classification for a single contact.
type Urgency struct {
	Class    UrgencyClass `json:"class"`
	Label    string       `json:"label"`
	Severity Severity     `json:"severity"`
}

// ClassifyUrgency maps a contact's follow-up state and dates to an urgency
// class. Precedence is strict and first-match-wins: overdue before due-soon
// before new before none. A missing due date never triggers the overdue or
// due-soon branches; it falls through to the tag-recency checks.
func ClassifyUrgency(c *types.Contact, now time.Time) Urgency {
	if due := c.FollowUpDueDate; due != nil {
		if due.Before(now) {
			return Urgency{Class: UrgencyOverdue, Label: "Overdue", Severity: SeverityHigh}
		}
		if due.Sub(now) <= dueSoonWindow {
			return Urgency{Class: UrgencyDueSoon, Label: "Due soon", Severity: SeverityMedium}
		}
	}

	if now.Sub(c.TaggedAt) <= newContactWindow {
		return Urgency{Class: UrgencyNew, Label: "New", Severity: SeverityLow}
	}

	return Urgency{Class: UrgencyNone, Severity: SeverityNone}
}

// StatusBadge renders the follow-up status enum as display text for the
// dashboard and detail views.
func StatusBadge(c *types.Contact, now time.Time) string {
	switch c.Status() {
	case types.FollowUpDone:
		if c.FollowUpDate != nil {
			return "Done " + c.FollowUpDate.Format("Jan 2, 2006")
		}
		return "Completed"

	case types.FollowUpPending:
		due := c.FollowUpDueDate
		if due == nil {
			return "Follow-up pending"
		}
		if due.Before(now) {
			return "Overdue"
		}
		days := daysBetween(dayOf(now), dayOf(due.In(now.Location())))
		if days <= 0 {
			return "Due today"
		}
		if days == 1 {
			return "Due tomorrow"
		}
		return fmt.Sprintf("Due in %d days", days)

	case types.FollowUpSnoozed:
		if c.SnoozedUntil != nil {
			return "Until " + c.SnoozedUntil.Format("Jan 2, 2006")
		}
		return "Snoozed"

	default:
		return "No follow-up"
	}
}
