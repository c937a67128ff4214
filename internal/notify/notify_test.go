package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolohq/rolo/internal/notify"
	"github.com/rolohq/rolo/internal/storage/sqlite"
	"github.com/rolohq/rolo/pkg/types"
)

func newTestStore(t *testing.T) *sqlite.ContactStore {
	t.Helper()
	store, err := sqlite.NewContactStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeInboxFile(t *testing.T, dir, name string, c types.Contact) {
	t.Helper()
	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func TestInboxWatcher_DrainsExistingFiles(t *testing.T) {
	dataPath := t.TempDir()
	inbox := filepath.Join(dataPath, "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o700))

	writeInboxFile(t, inbox, "drop.json", types.Contact{Name: "Ada", Event: "GopherCon"})

	store := newTestStore(t)
	imported := make(chan *types.Contact, 1)

	w := notify.NewInboxWatcher(dataPath, store, func(c *types.Contact) {
		imported <- c
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	select {
	case c := <-imported:
		assert.Equal(t, "Ada", c.Name)
		assert.NotEmpty(t, c.ID, "imported contact must be assigned an ID")
		assert.False(t, c.TaggedAt.IsZero(), "imported contact must be stamped with a tag time")
	case <-time.After(2 * time.Second):
		t.Fatal("existing inbox file was not drained")
	}

	_, err := os.Stat(filepath.Join(inbox, "drop.json"))
	assert.True(t, os.IsNotExist(err), "consumed inbox file must be removed")
}

func TestInboxWatcher_PicksUpNewFiles(t *testing.T) {
	dataPath := t.TempDir()

	store := newTestStore(t)
	imported := make(chan *types.Contact, 1)

	w := notify.NewInboxWatcher(dataPath, store, func(c *types.Contact) {
		imported <- c
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	writeInboxFile(t, filepath.Join(dataPath, "inbox"), "new.json",
		types.Contact{ID: "inbox-1", Name: "Grace", Event: "Navy Reunion"})

	select {
	case c := <-imported:
		assert.Equal(t, "inbox-1", c.ID, "an ID present in the file must be kept")

		stored, err := store.Get(context.Background(), "inbox-1")
		require.NoError(t, err)
		assert.Equal(t, "Grace", stored.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("new inbox file was not picked up")
	}
}

func TestInboxWatcher_IgnoresMalformedFiles(t *testing.T) {
	dataPath := t.TempDir()
	inbox := filepath.Join(dataPath, "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "bad.json"), []byte("{not json"), 0o600))

	store := newTestStore(t)
	imported := make(chan *types.Contact, 1)

	w := notify.NewInboxWatcher(dataPath, store, func(c *types.Contact) {
		imported <- c
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	select {
	case <-imported:
		t.Fatal("malformed file must not trigger an import")
	case <-time.After(300 * time.Millisecond):
	}

	_, err := os.Stat(filepath.Join(inbox, "bad.json"))
	assert.True(t, os.IsNotExist(err), "malformed inbox file must still be removed")
}

func TestReminder_SweepDeliversOverdueAndDueSoon(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	overdue := now.Add(-48 * time.Hour)
	dueSoon := now.Add(24 * time.Hour)
	farOut := now.Add(30 * 24 * time.Hour)

	store := newTestStore(t)
	ctx := context.Background()

	seed := []types.Contact{
		{ID: "c1", Name: "Overdue Olive", TaggedAt: now.Add(-10 * 24 * time.Hour), FollowUpStatus: types.FollowUpPending, FollowUpDueDate: &overdue},
		{ID: "c2", Name: "Soon Sam", TaggedAt: now.Add(-10 * 24 * time.Hour), FollowUpStatus: types.FollowUpPending, FollowUpDueDate: &dueSoon},
		{ID: "c3", Name: "Later Lee", TaggedAt: now.Add(-10 * 24 * time.Hour), FollowUpStatus: types.FollowUpPending, FollowUpDueDate: &farOut},
		{ID: "c4", Name: "No Follow-up Ned", TaggedAt: now.Add(-10 * 24 * time.Hour)},
	}
	for i := range seed {
		seed[i].CreatedAt = seed[i].TaggedAt
		seed[i].UpdatedAt = seed[i].TaggedAt
		require.NoError(t, store.Store(ctx, &seed[i]))
	}

	var mu sync.Mutex
	var received []notify.ReminderPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p notify.ReminderPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := notify.NewReminder(store, srv.URL, time.Hour)
	require.NoError(t, r.Sweep(ctx, now))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2, "only overdue and due-soon contacts produce reminders")

	byID := map[string]notify.ReminderPayload{}
	for _, p := range received {
		byID[p.ContactID] = p
	}

	assert.Equal(t, "overdue", byID["c1"].Urgency)
	assert.Equal(t, "high", byID["c1"].Severity)
	assert.Equal(t, "due_soon", byID["c2"].Urgency)
	assert.Equal(t, "medium", byID["c2"].Severity)
	assert.NotContains(t, byID, "c3")
	assert.NotContains(t, byID, "c4")
}

func TestReminder_SweepSurvivesFailingWebhook(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	overdue := now.Add(-48 * time.Hour)

	store := newTestStore(t)
	ctx := context.Background()

	c := types.Contact{
		ID: "c1", Name: "Olive", TaggedAt: now.Add(-10 * 24 * time.Hour),
		CreatedAt: now, UpdatedAt: now,
		FollowUpStatus: types.FollowUpPending, FollowUpDueDate: &overdue,
	}
	require.NoError(t, store.Store(ctx, &c))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := notify.NewReminder(store, srv.URL, time.Hour)
	assert.NoError(t, r.Sweep(ctx, now), "delivery failures must not fail the sweep")
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := notify.NewBreakerWithConfig(notify.BreakerConfig{
		MaxFailures:          3,
		Timeout:              time.Minute,
		HalfOpenMaxSuccesses: 1,
	})
	ctx := context.Background()

	boom := func() error { return assert.AnError }

	for i := 0; i < 3; i++ {
		require.Error(t, b.Execute(ctx, boom))
	}
	assert.Equal(t, "open", b.State())

	err := b.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, notify.ErrCircuitOpen,
		"an open circuit must reject deliveries without invoking the function")

	m := b.Metrics()
	assert.Equal(t, uint64(4), m.TotalRequests)
	assert.Equal(t, uint64(4), m.TotalFailures)
}

func TestBreaker_SuccessKeepsCircuitClosed(t *testing.T) {
	b := notify.NewBreaker()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Execute(ctx, func() error { return nil }))
	}
	assert.Equal(t, "closed", b.State())

	m := b.Metrics()
	assert.Equal(t, uint64(5), m.TotalSuccesses)
}
