package logstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/remote"
	"github.com/dmitrijs2005/zyntracker/internal/syncstate"
)

// Add records a new entry at timestamp. On failure the store, including
// its id counter, is left as it was.
func (s *Store) Add(ctx context.Context, timestamp string) (models.LogEntry, error) {
	ts, err := models.NormalizeTimestamp(timestamp)
	if err != nil {
		return models.LogEntry{}, err
	}

	if err := s.acquire(ctx); err != nil {
		return models.LogEntry{}, err
	}
	defer s.release()

	s.mu.RLock()
	entry := models.LogEntry{ID: s.nextID, Timestamp: ts}
	candidate := append(slices.Clone(s.entries), entry)
	s.mu.RUnlock()

	if err := s.commit(ctx, "add", candidate, entry.ID+1, remote.AddMessage(entry.ID)); err != nil {
		return models.LogEntry{}, err
	}
	return entry, nil
}

// Update replaces the timestamp of entry id.
func (s *Store) Update(ctx context.Context, id int64, timestamp string) (models.LogEntry, error) {
	ts, err := models.NormalizeTimestamp(timestamp)
	if err != nil {
		return models.LogEntry{}, err
	}

	if err := s.acquire(ctx); err != nil {
		return models.LogEntry{}, err
	}
	defer s.release()

	s.mu.RLock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.RUnlock()
		return models.LogEntry{}, fmt.Errorf("%w: #%d", common.ErrNotFound, id)
	}
	candidate := slices.Clone(s.entries)
	candidate[i].Timestamp = ts
	updated := candidate[i]
	next := s.nextID
	s.mu.RUnlock()

	if err := s.commit(ctx, "update", candidate, next, remote.UpdateMessage(id)); err != nil {
		return models.LogEntry{}, err
	}
	return updated, nil
}

// Remove deletes entry id. Its id is never reused.
func (s *Store) Remove(ctx context.Context, id int64) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.RLock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.RUnlock()
		return fmt.Errorf("%w: #%d", common.ErrNotFound, id)
	}
	candidate := slices.Delete(slices.Clone(s.entries), i, i+1)
	next := s.nextID
	s.mu.RUnlock()

	return s.commit(ctx, "remove", candidate, next, remote.DeleteMessage(id))
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.entries, func(e models.LogEntry) bool { return e.ID == id })
}

// commit makes candidate the current snapshot. With sync enabled the
// snapshot is pushed first and nothing changes locally if the push fails.
// The caller holds the guard.
func (s *Store) commit(ctx context.Context, op string, candidate []models.LogEntry, nextID int64, message string) error {
	s.mu.RLock()
	enabled := s.cfg.Enabled()
	cfg, token := s.cfg, s.token
	s.mu.RUnlock()

	if !enabled {
		s.mu.Lock()
		s.entries = candidate
		s.nextID = nextID
		s.mu.Unlock()

		s.persist(ctx, candidate, nextID)
		s.publishLogs()
		return nil
	}

	s.mu.Lock()
	st, err := s.machine.Begin(syncstate.Push)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publishState(st)

	newToken, err := s.push(ctx, cfg, candidate, token, message)
	if err != nil {
		s.log.Error(ctx, "remote push failed", "op", op, "err", err)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.entries = candidate
	s.nextID = nextID
	s.token = newToken
	st, err = s.machine.Succeed(len(candidate), s.now())
	s.mu.Unlock()

	s.log.Info(ctx, "remote push", "op", op, "count", len(candidate), "version", newToken)
	s.persist(ctx, candidate, nextID)
	s.publishLogs()
	s.publishState(st)
	return err
}

func (s *Store) push(ctx context.Context, cfg models.SyncConfig, entries []models.LogEntry, token models.VersionToken, message string) (models.VersionToken, error) {
	if err := s.checkRemote(cfg); err != nil {
		return "", err
	}
	return s.remote.Push(ctx, cfg, entries, token, message)
}

// fail moves the machine to error and publishes it.
func (s *Store) fail(cause error) {
	s.mu.Lock()
	st, err := s.machine.Fail(cause)
	s.mu.Unlock()
	if err == nil {
		s.publishState(st)
	}
}

func (s *Store) checkRemote(cfg models.SyncConfig) error {
	if s.remote == nil {
		return fmt.Errorf("%w: no remote client configured", common.ErrRemoteConfig)
	}
	return remote.Validate(cfg)
}
