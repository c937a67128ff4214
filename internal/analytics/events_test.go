package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolohq/rolo/pkg/types"
)

func tagged(event, industry string, at time.Time, status types.FollowUpStatus) types.Contact {
	return types.Contact{
		Name:           "Contact",
		Event:          event,
		Industry:       industry,
		TaggedAt:       at,
		FollowUpStatus: status,
	}
}

func TestAggregateEvents_Empty(t *testing.T) {
	assert.Empty(t, AggregateEvents(nil))
	assert.Empty(t, AggregateEvents([]types.Contact{}))
}

func TestAggregateEvents_GroupingAndCompletionRate(t *testing.T) {
	day0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	day1 := day0.AddDate(0, 0, 1)

	contacts := []types.Contact{
		tagged("Conf A", "Tech", day0, types.FollowUpPending),
		tagged("Conf A", "Tech", day0, types.FollowUpDone),
		tagged("Conf B", "Finance", day1, types.FollowUpNone),
	}

	aggs := AggregateEvents(contacts)
	require.Len(t, aggs, 2)

	// Sorted descending by most-recent tag date: Conf B first.
	assert.Equal(t, "Conf B", aggs[0].Name)
	assert.Equal(t, 1, aggs[0].ContactCount)
	assert.Equal(t, 0.0, aggs[0].CompletionRate, "all-none group has no completion rate")
	assert.False(t, aggs[0].HasFollowUps())

	confA := aggs[1]
	assert.Equal(t, "Conf A", confA.Name)
	assert.Equal(t, 2, confA.ContactCount)
	assert.Equal(t, FollowUpStats{Pending: 1, Done: 1}, confA.FollowUpStats)
	assert.Equal(t, 50.0, confA.CompletionRate)
	assert.True(t, confA.HasFollowUps())
	assert.True(t, confA.MostRecent.Equal(day0))
	assert.Len(t, confA.Contacts, 2)
}

func TestAggregateEvents_CompletionRateBounds(t *testing.T) {
	day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		statuses []types.FollowUpStatus
		expected float64
	}{
		{"all done", []types.FollowUpStatus{types.FollowUpDone, types.FollowUpDone}, 100},
		{"none done", []types.FollowUpStatus{types.FollowUpPending, types.FollowUpSnoozed}, 0},
		{"all status none", []types.FollowUpStatus{types.FollowUpNone, types.FollowUpNone}, 0},
		{"mixed with none excluded from denominator", []types.FollowUpStatus{
			types.FollowUpDone, types.FollowUpPending, types.FollowUpNone, types.FollowUpNone,
		}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var contacts []types.Contact
			for _, s := range tt.statuses {
				contacts = append(contacts, tagged("E", "I", day, s))
			}

			aggs := AggregateEvents(contacts)
			require.Len(t, aggs, 1)
			assert.Equal(t, tt.expected, aggs[0].CompletionRate)
			assert.GreaterOrEqual(t, aggs[0].CompletionRate, 0.0)
			assert.LessOrEqual(t, aggs[0].CompletionRate, 100.0)
		})
	}
}

func TestAggregateEvents_EmptyEventFoldsIntoUnspecified(t *testing.T) {
	day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	aggs := AggregateEvents([]types.Contact{
		tagged("", "Tech", day, types.FollowUpNone),
		tagged("", "Tech", day, types.FollowUpNone),
	})
	require.Len(t, aggs, 1)
	assert.Equal(t, types.UnspecifiedEvent, aggs[0].Name)
	assert.Equal(t, 2, aggs[0].ContactCount)
}

func TestAggregateEvents_UntaggedStatusCountsAsNone(t *testing.T) {
	day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	aggs := AggregateEvents([]types.Contact{
		{Name: "No status", Event: "E", TaggedAt: day},
	})
	require.Len(t, aggs, 1)
	assert.Equal(t, 1, aggs[0].FollowUpStats.None)
	assert.False(t, aggs[0].HasFollowUps())
}

func TestAggregateEvents_MostRecentUsesParsedTimes(t *testing.T) {
	// Mixed offsets: string comparison would order these wrongly, parsed
	// instants must win.
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// B reads as "Jun 1" but is 03:00 Jun 2 UTC, chronologically after A.
	utcInstant := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	nyInstant := time.Date(2025, 6, 1, 23, 0, 0, 0, newYork)

	aggs := AggregateEvents([]types.Contact{
		tagged("A", "", utcInstant, types.FollowUpNone),
		tagged("B", "", nyInstant, types.FollowUpNone),
	})
	require.Len(t, aggs, 2)
	assert.Equal(t, "B", aggs[0].Name, "chronological comparison must beat wall-clock appearance")
}
