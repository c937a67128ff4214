// Package server_test exercises the HTTP server end to end against an
// in-memory SQLite store.
package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolohq/rolo/internal/backup"
	"github.com/rolohq/rolo/internal/config"
	"github.com/rolohq/rolo/internal/server"
	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/internal/storage/sqlite"
	"github.com/rolohq/rolo/pkg/types"
)

func testServerConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0, // random port
		},
		Storage: config.StorageConfig{
			DataPath: t.TempDir(),
		},
		Security: config.SecurityConfig{
			SecurityMode:   "development",
			RateLimitRPS:   100,
			RateLimitBurst: 200,
		},
		Features: config.FeaturesConfig{
			EnableExport:    true,
			EnableWebSocket: true,
		},
	}
}

// startTestServer starts a server over an in-memory SQLite store and returns
// the base URL plus the store for seeding. Cleanup is registered with t.Cleanup.
func startTestServer(t *testing.T, cfg *config.Config) (string, *sqlite.ContactStore) {
	t.Helper()

	store, err := sqlite.NewContactStore(":memory:")
	require.NoError(t, err, "failed to create in-memory SQLite store")

	ctx, cancel := context.WithCancel(context.Background())

	addrChan := make(chan string, 1)
	go func() {
		addr, _ := server.Start(ctx, cfg, store, store, nil)
		addrChan <- addr
	}()

	var addr string
	select {
	case addr = <-addrChan:
	case <-time.After(5 * time.Second):
		cancel()
		_ = store.Close()
		t.Fatal("server did not start within timeout")
	}

	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
		_ = store.Close()
	})

	return "http://" + addr, store
}

func seedContact(t *testing.T, store *sqlite.ContactStore, c types.Contact) {
	t.Helper()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.TaggedAt
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.TaggedAt
	}
	require.NoError(t, store.Store(context.Background(), &c))
}

func TestServer_StartsOnRandomPort(t *testing.T) {
	baseURL, _ := startTestServer(t, testServerConfig(t))

	require.True(t, strings.HasPrefix(baseURL, "http://"))
	addr := strings.TrimPrefix(baseURL, "http://")

	host, port, err := net.SplitHostPort(addr)
	assert.NoError(t, err, "address should be valid host:port format")
	assert.NotEmpty(t, host)
	assert.NotEqual(t, "0", port, "port should be resolved in actual address")
}

func TestServer_HealthEndpoint(t *testing.T) {
	baseURL, _ := startTestServer(t, testServerConfig(t))

	resp, err := http.Get(baseURL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthy")
}

func TestServer_SecurityHeaders(t *testing.T) {
	baseURL, _ := startTestServer(t, testServerConfig(t))

	resp, err := http.Get(baseURL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestServer_ContactLifecycle(t *testing.T) {
	baseURL, _ := startTestServer(t, testServerConfig(t))

	// Create
	createBody := `{"name":"Ada Lovelace","event":"GopherCon","industry":"Tech","follow_up_status":"pending"}`
	resp, err := http.Post(baseURL+"/api/contacts", "application/json",
		bytes.NewBufferString(createBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created types.Contact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotEmpty(t, created.ID)

	// Get
	resp, err = http.Get(baseURL + "/api/contacts/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Update status to done
	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/contacts/"+created.ID,
		bytes.NewBufferString(`{"follow_up_status":"done"}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated types.Contact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, types.FollowUpDone, updated.FollowUpStatus)
	assert.NotNil(t, updated.FollowUpDate, "done transition stamps the completion date")

	// Delete
	req, err = http.NewRequest(http.MethodDelete, baseURL+"/api/contacts/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Gone
	resp, err = http.Get(baseURL + "/api/contacts/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_ListContactsPagination(t *testing.T) {
	baseURL, store := startTestServer(t, testServerConfig(t))

	base := time.Now().Add(-30 * 24 * time.Hour)
	for i := 0; i < 25; i++ {
		seedContact(t, store, types.Contact{
			ID:       fmt.Sprintf("ct:%02d", i),
			Name:     fmt.Sprintf("Contact %02d", i),
			TaggedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	resp, err := http.Get(baseURL + "/api/contacts?page=2&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result storage.PaginatedResult[types.Contact]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 25, result.Total)
	assert.Equal(t, 2, result.Page)
	assert.Len(t, result.Items, 10)
	assert.True(t, result.HasMore)
}

func TestServer_AnalyticsAndEvents(t *testing.T) {
	baseURL, store := startTestServer(t, testServerConfig(t))

	now := time.Now()
	seedContact(t, store, types.Contact{
		ID: "ct:1", Name: "Ada", Event: "GopherCon", Industry: "Tech",
		TaggedAt: now, FollowUpStatus: types.FollowUpDone,
	})
	seedContact(t, store, types.Contact{
		ID: "ct:2", Name: "Grace", Event: "GopherCon", Industry: "Tech",
		TaggedAt: now.Add(-24 * time.Hour), FollowUpStatus: types.FollowUpPending,
	})

	resp, err := http.Get(baseURL + "/api/events")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	resp.Body.Close()
	assert.Equal(t, 1, events.Total)

	resp, err = http.Get(baseURL + "/api/analytics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap struct {
		TotalContacts int `json:"total_contacts"`
		Insights      struct {
			TopEvent         string `json:"top_event"`
			NetworkingStreak int    `json:"networking_streak"`
		} `json:"insights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.Equal(t, 2, snap.TotalContacts)
	assert.Equal(t, "GopherCon", snap.Insights.TopEvent)
	assert.Equal(t, 2, snap.Insights.NetworkingStreak)
}

func TestServer_ExportCSV(t *testing.T) {
	baseURL, store := startTestServer(t, testServerConfig(t))

	seedContact(t, store, types.Contact{
		ID: "ct:1", Name: "Ada", Event: "GopherCon", TaggedAt: time.Now(),
	})

	resp, err := http.Get(baseURL + "/api/export/csv")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ada")
}

func TestServer_AuthRequiredInProduction(t *testing.T) {
	cfg := testServerConfig(t)
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "test-token"

	baseURL, _ := startTestServer(t, cfg)

	// No token
	resp, err := http.Get(baseURL + "/api/contacts")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Health stays open
	resp, err = http.Get(baseURL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Valid token
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/contacts", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer test-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_CardLifecycle(t *testing.T) {
	baseURL, _ := startTestServer(t, testServerConfig(t))

	resp, err := http.Post(baseURL+"/api/cards", "application/json",
		bytes.NewBufferString(`{"name":"Conference","front":"{\"color\":\"blue\"}","is_default":true}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var card types.CardVariant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	resp.Body.Close()
	require.NotEmpty(t, card.ID)
	assert.True(t, card.IsDefault)

	resp, err = http.Get(baseURL + "/api/cards")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cards []types.CardVariant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cards))
	resp.Body.Close()
	assert.Len(t, cards, 1)
}

func TestServer_BackupEndpoints(t *testing.T) {
	cfg := testServerConfig(t)
	dbPath := cfg.Storage.DataPath + "/rolo.db"

	store, err := sqlite.NewContactStore(dbPath)
	require.NoError(t, err)

	backupSvc, err := backup.NewService(backup.Options{
		DBPath:   dbPath,
		Dir:      cfg.Storage.DataPath + "/backups",
		Interval: time.Hour,
		Verify:   true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	addr, _ := server.Start(ctx, cfg, store, store, backupSvc)
	t.Cleanup(func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
		_ = store.Close()
	})
	time.Sleep(100 * time.Millisecond)
	baseURL := "http://" + addr

	// No snapshots yet
	resp, err := http.Get(baseURL + "/api/backup")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Status struct {
			State   string `json:"state"`
			Message string `json:"message"`
		} `json:"status"`
		Snapshots []backup.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, "healthy", status.Status.State)
	assert.Empty(t, status.Snapshots)

	// Trigger a snapshot
	resp, err = http.Post(baseURL+"/api/backup/run", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap backup.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.True(t, snap.Verified)
	assert.Greater(t, snap.Size, int64(0))

	// Status now reflects the snapshot
	resp, err = http.Get(baseURL + "/api/backup")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Len(t, status.Snapshots, 1)
}
