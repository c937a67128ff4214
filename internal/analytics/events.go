// Package analytics implements the derived-metrics aggregation core of Rolo.
//
// Every function in this package is a pure computation over a point-in-time
// contact snapshot: callers pass the contact list (and, where time matters,
// an explicit now) and receive freshly computed values. Nothing here reads
// ambient state, touches storage, or mutates its input.
package analytics

import (
	"sort"
	"time"

	"github.com/rolohq/rolo/pkg/types"
)

// FollowUpStats tallies contacts in a group by follow-up status.
type FollowUpStats struct {
	Pending int `json:"pending"`
	Done    int `json:"done"`
	Snoozed int `json:"snoozed"`
	None    int `json:"none"`
}

// EventAggregate holds the per-event rollup consumed by the events dashboard.
type EventAggregate struct {
	// Name is the event label; contacts without an event fold into
	// types.UnspecifiedEvent.
	Name string `json:"name"`

	// ContactCount is the number of contacts tagged at this event.
	ContactCount int `json:"contact_count"`

	// FollowUpStats is the four-way status tally for the group.
	FollowUpStats FollowUpStats `json:"follow_up_stats"`

	// CompletionRate is done / (count - none) * 100, or 0 when no contact in
	// the group has follow-up activity.
	CompletionRate float64 `json:"completion_rate"`

	// MostRecent is the latest tagged_at in the group.
	MostRecent time.Time `json:"most_recent"`

	// Contacts is the underlying contact list for the group.
	Contacts []types.Contact `json:"contacts"`
}

// HasFollowUps reports whether any contact in the group has follow-up activity.
func (a *EventAggregate) HasFollowUps() bool {
	return a.ContactCount-a.FollowUpStats.None > 0
}

// AggregateEvents groups contacts by event name and computes the per-event
// rollups, sorted descending by most-recent tag date. An empty contact list
// yields an empty (nil) result, never an error.
func AggregateEvents(contacts []types.Contact) []EventAggregate {
	if len(contacts) == 0 {
		return nil
	}

	byEvent := make(map[string]*EventAggregate)
	var order []string

	for _, c := range contacts {
		name := c.EventName()
		agg, ok := byEvent[name]
		if !ok {
			agg = &EventAggregate{Name: name}
			byEvent[name] = agg
			order = append(order, name)
		}

		agg.ContactCount++
		agg.Contacts = append(agg.Contacts, c)

		switch c.Status() {
		case types.FollowUpPending:
			agg.FollowUpStats.Pending++
		case types.FollowUpDone:
			agg.FollowUpStats.Done++
		case types.FollowUpSnoozed:
			agg.FollowUpStats.Snoozed++
		default:
			agg.FollowUpStats.None++
		}

		// Chronological comparison on parsed times, not string order.
		if c.TaggedAt.After(agg.MostRecent) {
			agg.MostRecent = c.TaggedAt
		}
	}

	result := make([]EventAggregate, 0, len(order))
	for _, name := range order {
		agg := byEvent[name]

		// Guard the zero denominator: a group where every contact is
		// status "none" has no completion rate.
		denom := agg.ContactCount - agg.FollowUpStats.None
		if denom > 0 {
			agg.CompletionRate = float64(agg.FollowUpStats.Done) / float64(denom) * 100
		}

		result = append(result, *agg)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].MostRecent.After(result[j].MostRecent)
	})

	return result
}
