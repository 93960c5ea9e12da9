package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/zyntracker/internal/api"
	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/logstore"
	"github.com/dmitrijs2005/zyntracker/internal/mirror"
	"github.com/dmitrijs2005/zyntracker/internal/models"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// stubRemote serves one document and rejects stale tokens.
type stubRemote struct {
	mu      sync.Mutex
	doc     []models.LogEntry
	version int
	pushErr error
}

func (s *stubRemote) token() models.VersionToken {
	return models.VersionToken(strings.Repeat("v", s.version))
}

func (s *stubRemote) Fetch(context.Context, models.SyncConfig) ([]models.LogEntry, models.VersionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LogEntry(nil), s.doc...), s.token(), nil
}

func (s *stubRemote) Push(_ context.Context, _ models.SyncConfig, entries []models.LogEntry, token models.VersionToken, _ string) (models.VersionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return "", s.pushErr
	}
	if token != s.token() {
		re := common.NewRemoteError(http.StatusConflict, "stale", nil)
		re.Conflict = true
		return "", re
	}
	s.doc = append([]models.LogEntry(nil), entries...)
	s.version++
	return s.token(), nil
}

func newServer(t *testing.T, rc *stubRemote) (*httptest.Server, *logstore.Store) {
	t.Helper()
	var store *logstore.Store
	if rc != nil {
		store = logstore.New(mirror.NewMemory(), rc)
	} else {
		store = logstore.New(mirror.NewMemory(), nil)
	}
	require.NoError(t, store.Load(context.Background()))

	srv := httptest.NewServer(api.NewRouter(store, api.WithClock(func() time.Time { return fixedNow })))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestLogsLifecycle(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/logs", `{"timestamp":"2024-01-02T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first models.LogEntry
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Equal(t, models.LogEntry{ID: 1, Timestamp: "2024-01-02T10:00:00.000Z"}, first)

	resp, body = do(t, http.MethodPost, srv.URL+"/api/logs", `{}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second models.LogEntry
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, models.LogEntry{ID: 2, Timestamp: "2024-06-01T12:00:00.000Z"}, second)

	resp, body = do(t, http.MethodPut, srv.URL+"/api/logs/1", `{"timestamp":"2024-01-03T10:00:00Z"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":1,"timestamp":"2024-01-03T10:00:00.000Z"}`, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/logs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":2,"timestamp":"2024-06-01T12:00:00.000Z"},{"id":1,"timestamp":"2024-01-03T10:00:00.000Z"}]`, string(body))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/logs/2", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/logs.csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, "id,timestamp\n1,2024-01-03T10:00:00.000Z", string(body))
}

func TestLogsErrors(t *testing.T) {
	srv, _ := newServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid timestamp", http.MethodPost, "/api/logs", `{"timestamp":"not a date"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/logs", `{`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/logs/42", `{"timestamp":"2024-01-01T00:00:00Z"}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/logs/42", "", http.StatusNotFound},
		{"bad id", http.MethodDelete, "/api/logs/abc", "", http.StatusBadRequest},
		{"id out of range", http.MethodPut, "/api/logs/9223372036854775808", `{"timestamp":"2024-01-01T00:00:00Z"}`, http.StatusBadRequest},
		{"negative id missing", http.MethodPut, "/api/logs/-1", `{"timestamp":"2024-01-01T00:00:00Z"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, body))
		})
	}
}

func TestLogs_NonPositiveIDsFromMirror(t *testing.T) {
	m := mirror.NewMemory()
	require.NoError(t, m.Set(context.Background(), common.LogsSlot,
		[]byte(`[{"id":0,"timestamp":"2024-01-01T00:00:00Z"},{"id":-3,"timestamp":"2024-01-02T00:00:00Z"}]`)))
	store := logstore.New(m, nil)
	require.NoError(t, store.Load(context.Background()))
	srv := httptest.NewServer(api.NewRouter(store))
	t.Cleanup(srv.Close)

	resp, body := do(t, http.MethodPut, srv.URL+"/api/logs/-3", `{"timestamp":"2024-01-05T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated models.LogEntry
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.LogEntry{ID: -3, Timestamp: "2024-01-05T00:00:00.000Z"}, updated)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/logs/0", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	got := store.All()
	require.Len(t, got, 1)
	assert.Equal(t, int64(-3), got[0].ID)
}

func TestStatsEndpoint(t *testing.T) {
	srv, store := newServer(t, nil)
	for _, ts := range []string{"2024-05-31T10:00:00Z", "2024-06-01T08:00:00Z", "2024-06-01T09:00:00Z"} {
		_, err := store.Add(context.Background(), ts)
		require.NoError(t, err)
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/api/stats?window=7", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Stats
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Daily, 8)
	assert.Equal(t, 2, got.Daily[len(got.Daily)-1].Count)
	require.Len(t, got.Monthly, 2)
	assert.Equal(t, models.Bucket{Period: "2024-06", Count: 2}, got.Monthly[1])

	_, body = do(t, http.MethodGet, srv.URL+"/api/stats", "")
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Daily, 31)
}

func TestSyncEndpoints(t *testing.T) {
	rc := &stubRemote{doc: []models.LogEntry{{ID: 5, Timestamp: "2024-01-05T10:00:00.000Z"}}, version: 1}
	srv, store := newServer(t, rc)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/sync", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"state":{"enabled":false,"status":"idle","message":"","lastSyncedAt":null},"config":null}`, string(body))

	resp, body = do(t, http.MethodPut, srv.URL+"/api/sync/config", `{"owner":"alice","repo":"logs","token":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "secret")

	var got struct {
		State  models.SyncState  `json:"state"`
		Config models.SyncConfig `json:"config"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.StatusIdle, got.State.Status)
	assert.Equal(t, "Synced 1 logs", got.State.Message)
	assert.Equal(t, "main", got.Config.Branch)
	assert.Equal(t, []models.LogEntry{{ID: 5, Timestamp: "2024-01-05T10:00:00.000Z"}}, store.All())

	// another writer moves the document on
	rc.mu.Lock()
	rc.version++
	rc.mu.Unlock()

	resp, body = do(t, http.MethodPost, srv.URL+"/api/logs", `{"timestamp":"2024-01-06T10:00:00Z"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "reload before retrying")

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/sync/reload", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/logs", `{"timestamp":"2024-01-06T10:00:00Z"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	rc.mu.Lock()
	rc.pushErr = common.NewRemoteError(http.StatusServiceUnavailable, "", nil)
	rc.mu.Unlock()
	resp, body = do(t, http.MethodDelete, srv.URL+"/api/logs/5", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Service Unavailable", errorMessage(t, body))

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/sync/config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.False(t, got.State.Enabled)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/sync/reload", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSaveConfig_Incomplete(t *testing.T) {
	srv, _ := newServer(t, &stubRemote{})

	resp, body := do(t, http.MethodPut, srv.URL+"/api/sync/config", `{"repo":"logs","token":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "owner")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"timestamp", common.ErrInvalidTimestamp, http.StatusBadRequest},
		{"config", common.ErrRemoteConfig, http.StatusBadRequest},
		{"not found", common.ErrNotFound, http.StatusNotFound},
		{"disabled", common.ErrSyncDisabled, http.StatusConflict},
		{"conflict", &common.RemoteError{Status: 409, Message: "x", Conflict: true}, http.StatusConflict},
		{"remote", &common.RemoteError{Status: 500, Message: "x"}, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, api.StatusFor(tt.err))
		})
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) api.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg api.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestFeed(t *testing.T) {
	srv, store := newServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/feed", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readMessage(t, ctx, conn)
	assert.Equal(t, api.MessageTypeLogs, msg.Type)
	assert.JSONEq(t, `[]`, string(msg.Data))

	msg = readMessage(t, ctx, conn)
	assert.Equal(t, api.MessageTypeSync, msg.Type)

	_, err = store.Add(ctx, "2024-01-02T10:00:00Z")
	require.NoError(t, err)

	msg = readMessage(t, ctx, conn)
	assert.Equal(t, api.MessageTypeLogs, msg.Type)
	assert.JSONEq(t, `[{"id":1,"timestamp":"2024-01-02T10:00:00.000Z"}]`, string(msg.Data))
}
