package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rolohq/rolo/pkg/types"
)

const (
	// dailyBucketMaxSpanDays is the largest history span (in days) that still
	// uses daily growth buckets; longer spans switch to weekly buckets.
	dailyBucketMaxSpanDays = 30

	// topIndustries and topInterests bound the truncated frequency tables.
	topIndustries = 8
	topInterests  = 10

	// recentContactLimit bounds the recent-contacts list.
	recentContactLimit = 10
)

// FrequencyCount is a single entry in a frequency table.
type FrequencyCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GrowthPoint is one bucket of the cumulative growth series.
type GrowthPoint struct {
	Date  string `json:"date"`  // Bucket start, "2006-01-02"
	Count int    `json:"count"` // Running cumulative total through this bucket
	Label string `json:"label"` // Human-readable label ("Jun 1" daily, "Week 3" weekly)
}

// ActivityPoint is one calendar day of tagging activity (not cumulative).
type ActivityPoint struct {
	Date  string `json:"date"` // "2006-01-02"
	Count int    `json:"count"`
}

// Insights bundles the headline derived metrics for the dashboard.
type Insights struct {
	// TopEvent and TopIndustry are the most frequent values, empty when no
	// contacts exist.
	TopEvent    string `json:"top_event"`
	TopIndustry string `json:"top_industry"`

	// AvgContactsPerEvent is total contacts / distinct events, 0 when empty.
	AvgContactsPerEvent float64 `json:"avg_contacts_per_event"`

	// MostActiveDay is the weekday name with the highest tagging tally,
	// "N/A" when no contacts exist.
	MostActiveDay string `json:"most_active_day"`

	// NetworkingStreak counts consecutive active tagging days walking
	// backward from today. It counts distinct active days, not contacts.
	NetworkingStreak int `json:"networking_streak"`

	// ConsistencyScore is min(100, round(active / max(30, active) * 100)).
	// The normalization is scale-sensitive to lifetime active-day count
	// rather than a fixed calendar window; preserved as observed behavior.
	ConsistencyScore int `json:"consistency_score"`
}

// Snapshot is the full bundle of statistics derived from a contact list.
// It is a pure function of its inputs and carries no identity of its own.
type Snapshot struct {
	TotalContacts int `json:"total_contacts"`

	EventStats    []FrequencyCount `json:"event_stats"`
	IndustryStats []FrequencyCount `json:"industry_stats"` // Truncated to top 8
	InterestStats []FrequencyCount `json:"interest_stats"` // Flattened over interests, top 10

	GrowthData     []GrowthPoint   `json:"growth_data"`
	ActivityData   []ActivityPoint `json:"activity_data"`
	RecentContacts []types.Contact `json:"recent_contacts"`

	Insights Insights `json:"insights"`

	// ThisMonthCount is the number of contacts tagged since the first day of
	// the current calendar month.
	ThisMonthCount int `json:"this_month_count"`

	// QuickTagRatio is the rounded percentage of quick-tagged contacts.
	QuickTagRatio int `json:"quick_tag_ratio"`

	// UniqueEventsCount is the true distinct event count.
	UniqueEventsCount int `json:"unique_events_count"`

	// UniqueIndustriesCount is the length of the truncated industry table, so
	// it undercounts when more than 8 distinct industries exist. Preserved as
	// observed behavior; see DESIGN.md.
	UniqueIndustriesCount int `json:"unique_industries_count"`
}

// BuildSnapshot computes the full analytics snapshot for a contact list.
// All calendar arithmetic happens in now's location so day boundaries are
// consistent across every sub-series. An empty list yields empty series and
// zero insights, never an error.
func BuildSnapshot(contacts []types.Contact, now time.Time) *Snapshot {
	snap := &Snapshot{
		TotalContacts: len(contacts),
		Insights:      Insights{MostActiveDay: "N/A"},
	}

	snap.EventStats = frequencyTable(contacts, func(c *types.Contact) []string {
		return []string{c.EventName()}
	}, 0)
	snap.IndustryStats = frequencyTable(contacts, func(c *types.Contact) []string {
		if c.Industry == "" {
			return nil
		}
		return []string{c.Industry}
	}, topIndustries)
	snap.InterestStats = frequencyTable(contacts, func(c *types.Contact) []string {
		return c.Interests
	}, topInterests)

	snap.ActivityData = activitySeries(contacts, now.Location())
	snap.GrowthData = growthSeries(contacts, now)
	snap.RecentContacts = recentContacts(contacts)

	if len(snap.EventStats) > 0 {
		snap.Insights.TopEvent = snap.EventStats[0].Name
		snap.Insights.AvgContactsPerEvent = float64(len(contacts)) / float64(len(snap.EventStats))
	}
	if len(snap.IndustryStats) > 0 {
		snap.Insights.TopIndustry = snap.IndustryStats[0].Name
	}
	if len(contacts) > 0 {
		snap.Insights.MostActiveDay = mostActiveWeekday(contacts, now.Location())
	}
	snap.Insights.NetworkingStreak = networkingStreak(snap.ActivityData, now)
	snap.Insights.ConsistencyScore = consistencyScore(len(snap.ActivityData))

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	quick := 0
	for i := range contacts {
		if !contacts[i].TaggedAt.Before(monthStart) {
			snap.ThisMonthCount++
		}
		if contacts[i].IsQuickTag {
			quick++
		}
	}
	if len(contacts) > 0 {
		snap.QuickTagRatio = int(math.Round(float64(quick) / float64(len(contacts)) * 100))
	}

	snap.UniqueEventsCount = len(snap.EventStats)
	snap.UniqueIndustriesCount = len(snap.IndustryStats)

	return snap
}

// frequencyTable builds a count-per-value table sorted descending by count.
// Ties keep first-encounter order. A limit of 0 means no truncation.
func frequencyTable(contacts []types.Contact, values func(*types.Contact) []string, limit int) []FrequencyCount {
	counts := make(map[string]int)
	var order []string

	for i := range contacts {
		for _, v := range values(&contacts[i]) {
			if v == "" {
				continue
			}
			if _, seen := counts[v]; !seen {
				order = append(order, v)
			}
			counts[v]++
		}
	}

	table := make([]FrequencyCount, 0, len(order))
	for _, name := range order {
		table = append(table, FrequencyCount{Name: name, Count: counts[name]})
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Count > table[j].Count
	})

	if limit > 0 && len(table) > limit {
		table = table[:limit]
	}
	if len(table) == 0 {
		return nil
	}
	return table
}

// activitySeries counts contacts tagged per calendar day, ascending by date.
func activitySeries(contacts []types.Contact, loc *time.Location) []ActivityPoint {
	if len(contacts) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for i := range contacts {
		counts[contacts[i].TaggedAt.In(loc).Format("2006-01-02")]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// The fixed "2006-01-02" format makes lexical order chronological.
	sort.Strings(keys)

	points := make([]ActivityPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, ActivityPoint{Date: k, Count: counts[k]})
	}
	return points
}

// growthSeries computes the cumulative growth curve from the earliest contact
// to now. Histories spanning at most 30 days bucket daily; anything longer
// buckets into 7-day windows anchored at the earliest date.
func growthSeries(contacts []types.Contact, now time.Time) []GrowthPoint {
	if len(contacts) == 0 {
		return nil
	}

	loc := now.Location()

	earliest := contacts[0].TaggedAt
	for i := range contacts {
		if contacts[i].TaggedAt.Before(earliest) {
			earliest = contacts[i].TaggedAt
		}
	}

	start := dayOf(earliest.In(loc))
	today := dayOf(now)
	spanDays := daysBetween(start, today)

	// Count tagged contacts per day offset from the start.
	dayCounts := make(map[int]int)
	for i := range contacts {
		offset := daysBetween(start, dayOf(contacts[i].TaggedAt.In(loc)))
		dayCounts[offset]++
	}

	var points []GrowthPoint
	cumulative := 0

	if spanDays <= dailyBucketMaxSpanDays {
		for d := 0; d <= spanDays; d++ {
			cumulative += dayCounts[d]
			day := start.AddDate(0, 0, d)
			points = append(points, GrowthPoint{
				Date:  day.Format("2006-01-02"),
				Count: cumulative,
				Label: day.Format("Jan 2"),
			})
		}
		return points
	}

	// Weekly windows [weekStart, weekStart+6d], inclusive on both ends.
	for w := 0; w*7 <= spanDays; w++ {
		for d := w * 7; d < (w+1)*7; d++ {
			cumulative += dayCounts[d]
		}
		weekStart := start.AddDate(0, 0, w*7)
		points = append(points, GrowthPoint{
			Date:  weekStart.Format("2006-01-02"),
			Count: cumulative,
			Label: fmt.Sprintf("Week %d", w+1),
		})
	}
	return points
}

// recentContacts returns the 10 most-recently tagged contacts, descending.
func recentContacts(contacts []types.Contact) []types.Contact {
	if len(contacts) == 0 {
		return nil
	}

	recent := make([]types.Contact, len(contacts))
	copy(recent, contacts)

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].TaggedAt.After(recent[j].TaggedAt)
	})

	if len(recent) > recentContactLimit {
		recent = recent[:recentContactLimit]
	}
	return recent
}

// mostActiveWeekday returns the weekday name with the highest tagging tally.
// Ties resolve to the earliest weekday in Sunday-Saturday order.
func mostActiveWeekday(contacts []types.Contact, loc *time.Location) string {
	var tally [7]int
	for i := range contacts {
		tally[contacts[i].TaggedAt.In(loc).Weekday()]++
	}

	best := time.Sunday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if tally[day] > tally[best] {
			best = day
		}
	}
	return best.String()
}

// networkingStreak counts consecutive active tagging days walking backward
// from today. The anchor starts at today; each active day extends the streak
// when it matches the anchor or precedes it by exactly one day, and the
// anchor then moves to that day. The walk stops at the first larger gap.
func networkingStreak(activity []ActivityPoint, now time.Time) int {
	if len(activity) == 0 {
		return 0
	}

	loc := now.Location()
	anchor := dayOf(now)
	streak := 0

	for i := len(activity) - 1; i >= 0; i-- {
		day, err := time.ParseInLocation("2006-01-02", activity[i].Date, loc)
		if err != nil {
			break
		}

		gap := daysBetween(day, anchor)
		if gap != 0 && gap != 1 {
			break
		}

		streak++
		anchor = day
	}

	return streak
}

// consistencyScore maps the active-day count to a bounded 0-100 score.
// Fewer than 30 lifetime active days yields a proportionally lower score;
// at or beyond 30 the score saturates at 100.
func consistencyScore(activeDays int) int {
	if activeDays == 0 {
		return 0
	}

	denom := activeDays
	if denom < 30 {
		denom = 30
	}

	score := int(math.Round(float64(activeDays) / float64(denom) * 100))
	if score > 100 {
		score = 100
	}
	return score
}

// dayOf truncates a time to midnight in its own location.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the number of calendar days from a to b (negative when
// b precedes a). Rounding absorbs DST-shortened or -lengthened days.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
