package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rolohq/rolo/internal/analytics"
	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/pkg/types"
)

func daysAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}

func TestEventsHandler_GroupsByEvent(t *testing.T) {
	store := new(MockContactStore)
	store.On("All", mock.Anything).Return([]types.Contact{
		{ID: "ct:1", Name: "Ada", Event: "GopherCon", TaggedAt: daysAgo(1), FollowUpStatus: types.FollowUpDone},
		{ID: "ct:2", Name: "Grace", Event: "GopherCon", TaggedAt: daysAgo(2), FollowUpStatus: types.FollowUpPending},
		{ID: "ct:3", Name: "Alan", TaggedAt: daysAgo(3)},
	}, nil)

	h := NewEventsHandler(store)
	rec := httptest.NewRecorder()

	h.GetEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)

	assert.Equal(t, "GopherCon", resp.Events[0].Name)
	assert.Equal(t, 2, resp.Events[0].ContactCount)
	assert.Equal(t, types.UnspecifiedEvent, resp.Events[1].Name,
		"contacts without an event fold into the unspecified group")
	assert.Len(t, resp.Events[0].Contacts, 2)
}

func TestEventsHandler_CanStripContactLists(t *testing.T) {
	store := new(MockContactStore)
	store.On("All", mock.Anything).Return([]types.Contact{
		{ID: "ct:1", Name: "Ada", Event: "GopherCon", TaggedAt: daysAgo(1)},
	}, nil)

	h := NewEventsHandler(store)
	rec := httptest.NewRecorder()

	h.GetEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events?include_contacts=false", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Events[0].Contacts)
	assert.Equal(t, 1, resp.Events[0].ContactCount)
}

func TestAnalyticsHandler_GetAnalytics(t *testing.T) {
	store := new(MockContactStore)
	store.On("All", mock.Anything).Return([]types.Contact{
		{ID: "ct:1", Name: "Ada", Event: "GopherCon", Industry: "Tech", TaggedAt: daysAgo(0)},
		{ID: "ct:2", Name: "Grace", Event: "GopherCon", Industry: "Tech", TaggedAt: daysAgo(1)},
	}, nil)

	h, err := NewAnalyticsHandler(store)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetAnalytics(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var snap analytics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.TotalContacts)
	assert.Equal(t, "GopherCon", snap.Insights.TopEvent)
	assert.Equal(t, 2, snap.Insights.NetworkingStreak,
		"today and yesterday form a two-day streak")
}

func TestAnalyticsHandler_GetFollowUps_OverdueFirst(t *testing.T) {
	overdue := time.Now().Add(-48 * time.Hour)
	dueSoon := time.Now().Add(24 * time.Hour)

	store := new(MockContactStore)
	store.On("All", mock.Anything).Return([]types.Contact{
		{ID: "ct:soon", Name: "Sam", TaggedAt: daysAgo(10), FollowUpStatus: types.FollowUpPending, FollowUpDueDate: &dueSoon},
		{ID: "ct:late", Name: "Olive", TaggedAt: daysAgo(10), FollowUpStatus: types.FollowUpPending, FollowUpDueDate: &overdue},
		{ID: "ct:new", Name: "Nia", TaggedAt: daysAgo(0)},
		{ID: "ct:quiet", Name: "Quinn", TaggedAt: daysAgo(30)},
	}, nil)

	h, err := NewAnalyticsHandler(store)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetFollowUps(rec, httptest.NewRequest(http.MethodGet, "/api/followups", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FollowUps []UrgencyEntry `json:"followups"`
		Total     int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Equal(t, 3, resp.Total, "contacts with no badge are excluded")
	assert.Equal(t, "ct:late", resp.FollowUps[0].ContactID)
	assert.Equal(t, "ct:soon", resp.FollowUps[1].ContactID)
	assert.Equal(t, "ct:new", resp.FollowUps[2].ContactID)
}

func TestActivityHandler_FiltersTrailingDays(t *testing.T) {
	store := new(MockContactStore)
	store.On("All", mock.Anything).Return([]types.Contact{
		{ID: "ct:1", Name: "Ada", TaggedAt: daysAgo(1)},
		{ID: "ct:2", Name: "Grace", TaggedAt: daysAgo(2)},
		{ID: "ct:3", Name: "Alan", TaggedAt: daysAgo(40)},
	}, nil)

	h := NewActivityHandler(store)
	rec := httptest.NewRecorder()

	h.GetActivity(rec, httptest.NewRequest(http.MethodGet, "/api/activity?days=7", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Days)
	assert.Len(t, resp.Points, 2, "the 40-day-old tag falls outside the window")
}

func TestStatsHandler_CountsWithMockStore(t *testing.T) {
	overdue := time.Now().Add(-48 * time.Hour)

	store := new(MockContactStore)
	store.On("List", mock.Anything, mock.Anything).Return(&storage.PaginatedResult[types.Contact]{Total: 3}, nil)
	store.On("All", mock.Anything).Return([]types.Contact{
		{ID: "ct:1", Name: "Ada", TaggedAt: daysAgo(10), FollowUpStatus: types.FollowUpPending, FollowUpDueDate: &overdue},
		{ID: "ct:2", Name: "Grace", TaggedAt: daysAgo(10)},
		{ID: "ct:3", Name: "Alan", TaggedAt: daysAgo(10)},
	}, nil)

	h := NewStatsHandler(store)
	rec := httptest.NewRecorder()

	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Contacts)
	assert.Equal(t, 1, resp.PendingDue)
	assert.Equal(t, 0, resp.Events, "SQL-derived counts are zero for non-SQLite stores")
}
