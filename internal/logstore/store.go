// Package logstore is the local-first store of log entries. It owns the
// in-memory cache, keeps a best-effort mirror of it and, when a sync
// configuration carries a token, treats the remote document as the
// authority: every mutation is pushed before it is committed locally.
package logstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/zyntracker/internal/logging"
	"github.com/dmitrijs2005/zyntracker/internal/mirror"
	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/notify"
	"github.com/dmitrijs2005/zyntracker/internal/remote"
	"github.com/dmitrijs2005/zyntracker/internal/syncstate"
)

// Store is safe for concurrent use. Mutations, reloads and config changes
// run one at a time; reads never wait for a remote round-trip.
type Store struct {
	id     string
	log    logging.Logger
	mirror mirror.Mirror
	remote remote.Client
	now    func() time.Time

	// guard admits one operation at a time
	guard chan struct{}

	mu         sync.RWMutex
	entries    []models.LogEntry
	nextID     int64
	cfg        models.SyncConfig
	hasConfig  bool
	token      models.VersionToken
	machine    *syncstate.Machine
	degraded   bool
	storageErr error

	logs  *notify.Notifier[[]models.LogEntry]
	state *notify.Notifier[models.SyncState]
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now, used for lastSyncedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRemoteName sets the name shown in sync status messages.
func WithRemoteName(name string) Option {
	return func(s *Store) { s.machine = syncstate.New(name) }
}

// New returns an empty store. Call Load before use.
func New(m mirror.Mirror, rc remote.Client, opts ...Option) *Store {
	s := &Store{
		id:      uuid.NewString(),
		log:     logging.Nop(),
		mirror:  m,
		remote:  rc,
		now:     time.Now,
		guard:   make(chan struct{}, 1),
		entries: []models.LogEntry{},
		nextID:  1,
		machine: syncstate.New("GitHub"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("store_id", s.id)
	s.logs = notify.New(models.SortedDesc(nil))
	s.state = notify.New(s.machine.State())
	return s
}

// ID identifies this store instance in logs.
func (s *Store) ID() string { return s.id }

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.guard }

// All returns the entries newest first.
func (s *Store) All() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SortedDesc(s.entries)
}

// Chronological returns the entries oldest first.
func (s *Store) Chronological() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SortedAsc(s.entries)
}

// NextID is the id the next Add will use.
func (s *Store) NextID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// Config returns the saved sync configuration and whether one is saved.
func (s *Store) Config() (models.SyncConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.hasConfig
}

func (s *Store) SyncState() models.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.machine.State()
}

// Degraded reports whether the mirror failed and the store is memory-only.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// StorageError is the mirror failure that degraded the store, if any. It
// wraps common.ErrStorageUnavailable.
func (s *Store) StorageError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storageErr
}

// Subscribe calls fn with the current entries (newest first) and again
// after every change, until the returned func is called.
func (s *Store) Subscribe(fn func([]models.LogEntry)) (unsubscribe func()) {
	return s.logs.Subscribe(fn)
}

// SubscribeSync calls fn with the current sync state and on every
// transition, until the returned func is called.
func (s *Store) SubscribeSync(fn func(models.SyncState)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

func (s *Store) publishLogs() {
	s.logs.Publish(s.All())
}

func (s *Store) publishState(st models.SyncState) {
	s.state.Publish(st)
}
