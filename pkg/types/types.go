// Package types defines the core data structures for the Rolo contact CRM.
// These types represent contacts, their follow-up workflow state, and the
// persisted card variants; all derived analytics structures live in the
// analytics package and are computed from these.
package types

// FollowUpStatus represents the outreach workflow state of a contact.
type FollowUpStatus string

// Follow-up status constants
const (
	// FollowUpPending indicates an outstanding follow-up, optionally with a due date
	FollowUpPending FollowUpStatus = "pending"

	// FollowUpDone indicates the follow-up has been completed
	FollowUpDone FollowUpStatus = "done"

	// FollowUpSnoozed indicates the follow-up is deferred until SnoozedUntil
	FollowUpSnoozed FollowUpStatus = "snoozed"

	// FollowUpNone indicates no follow-up workflow is active
	FollowUpNone FollowUpStatus = "none"
)

// ValidFollowUpStatuses is a slice of all valid follow-up statuses for validation
var ValidFollowUpStatuses = []FollowUpStatus{
	FollowUpPending,
	FollowUpDone,
	FollowUpSnoozed,
	FollowUpNone,
}

// IsValidFollowUpStatus checks if the given follow-up status is valid.
// The empty string is accepted and normalized to "none" elsewhere.
func IsValidFollowUpStatus(status FollowUpStatus) bool {
	if status == "" {
		return true
	}
	for _, valid := range ValidFollowUpStatuses {
		if valid == status {
			return true
		}
	}
	return false
}

// UnspecifiedEvent is the bucket label used when a contact carries no event.
const UnspecifiedEvent = "Unspecified Event"
