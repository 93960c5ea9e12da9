package logstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/logging"
	"github.com/dmitrijs2005/zyntracker/internal/mirror"
	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/remote"
	"github.com/stretchr/testify/require"
)

// fakeRemote is an in-memory document with version tokens.
type fakeRemote struct {
	mu       sync.Mutex
	doc      []models.LogEntry
	version  int
	messages []string
	fetches  int
	pushErr  error
	fetchErr error
	// block, when set, holds Push until it is closed
	block chan struct{}
}

func (f *fakeRemote) token() models.VersionToken {
	if f.version == 0 {
		return ""
	}
	return models.VersionToken(fmt.Sprintf("v%d", f.version))
}

func (f *fakeRemote) Fetch(_ context.Context, _ models.SyncConfig) ([]models.LogEntry, models.VersionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	return slices.Clone(f.doc), f.token(), nil
}

func (f *fakeRemote) Push(ctx context.Context, _ models.SyncConfig, entries []models.LogEntry, token models.VersionToken, message string) (models.VersionToken, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return "", f.pushErr
	}
	if token != f.token() {
		re := common.NewRemoteError(http.StatusConflict, "logs.json does not match "+string(token), nil)
		re.Conflict = true
		return "", re
	}
	f.doc = slices.Clone(entries)
	f.version++
	f.messages = append(f.messages, message)
	return f.token(), nil
}

func (f *fakeRemote) seed(entries ...models.LogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = entries
	f.version++
}

// brokenMirror fails every call.
type brokenMirror struct{}

var errDisk = errors.New("quota exceeded")

func (brokenMirror) Get(context.Context, string) ([]byte, error) { return nil, errDisk }
func (brokenMirror) Set(context.Context, string, []byte) error { return errDisk }
func (brokenMirror) SetMany(context.Context, map[string][]byte) error { return errDisk }
func (brokenMirror) Delete(context.Context, string) error { return errDisk }
func (brokenMirror) Close() error { return nil }

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

var syncCfg = models.SyncConfig{Owner: "alice", Repo: "logs", Token: "t0ken"}

func newTestStore(t *testing.T, m mirror.Mirror, rc *fakeRemote, opts ...Option) *Store {
	t.Helper()
	if m == nil {
		m = mirror.NewMemory()
	}
	var client remote.Client
	if rc != nil {
		client = rc
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)

	s := New(m, client, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func bufferLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(h)), &buf
}

func entry(id int64, ts string) models.LogEntry {
	return models.LogEntry{ID: id, Timestamp: ts}
}
