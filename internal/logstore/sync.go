package logstore

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/syncstate"
)

// Load reads the mirror and, when a saved configuration carries a token,
// replaces the cache from the remote. A remote failure is returned and
// reflected in SyncState; the store stays usable either way.
func (s *Store) Load(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	snap, ok := s.readMirror(ctx)
	next := nextIDFor(snap.entries, snap.counter)
	if ok {
		s.persistCounter(ctx, next)
	}
	cfg, hasConfig := s.readConfig(ctx)

	s.mu.Lock()
	s.entries = snap.entries
	s.nextID = next
	s.cfg = cfg
	s.hasConfig = hasConfig
	s.token = ""
	s.mu.Unlock()

	s.log.Info(ctx, "logs loaded", "count", len(snap.entries), "next_id", next, "sync", cfg.Enabled(), "degraded", !ok)
	s.publishLogs()

	if !cfg.Enabled() {
		return nil
	}
	return s.reload(ctx)
}

// SaveConfig stores cfg and rebinds the remote target. With a token the
// cache is then replaced from the remote; without one sync is disabled and
// the cache reverts to the mirror.
func (s *Store) SaveConfig(ctx context.Context, cfg models.SyncConfig) error {
	cfg = cfg.Normalized()
	if cfg.Enabled() {
		if err := s.checkRemote(cfg); err != nil {
			return err
		}
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.persistConfig(ctx, cfg)

	s.mu.Lock()
	s.cfg = cfg
	s.hasConfig = true
	s.token = ""
	s.mu.Unlock()

	s.log.Info(ctx, "sync config saved", "owner", cfg.Owner, "repo", cfg.Repo, "branch", cfg.Branch, "path", cfg.Path, "enabled", cfg.Enabled())

	if !cfg.Enabled() {
		s.disable(ctx)
		return nil
	}
	return s.reload(ctx)
}

// ClearConfig forgets the sync configuration and returns to local-only mode.
func (s *Store) ClearConfig(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.deleteConfig(ctx)

	s.mu.Lock()
	s.cfg = models.SyncConfig{}
	s.hasConfig = false
	s.token = ""
	s.mu.Unlock()

	s.log.Info(ctx, "sync config cleared")
	s.disable(ctx)
	return nil
}

// disable turns sync off and reverts the cache to the mirror contents.
// The caller holds the guard.
func (s *Store) disable(ctx context.Context) {
	s.mu.Lock()
	st := s.machine.Disable()
	s.mu.Unlock()
	s.publishState(st)

	s.revertToMirror(ctx)
}

// ReloadFromRemote replaces the cache with the remote document.
func (s *Store) ReloadFromRemote(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.RLock()
	enabled := s.cfg.Enabled()
	s.mu.RUnlock()
	if !enabled {
		return common.ErrSyncDisabled
	}
	return s.reload(ctx)
}

// ReloadLocal re-reads the mirror after another process changed it. It does
// nothing while sync is enabled, since the remote is authoritative then.
func (s *Store) ReloadLocal(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.RLock()
	enabled := s.cfg.Enabled()
	s.mu.RUnlock()
	if enabled {
		return nil
	}

	s.revertToMirror(ctx)
	return nil
}

// revertToMirror replaces the cache with the mirror contents when they
// differ. The id counter never moves backwards. The caller holds the guard.
func (s *Store) revertToMirror(ctx context.Context) {
	snap, ok := s.readMirror(ctx)
	if !ok {
		return
	}

	s.mu.Lock()
	next := max(s.nextID, nextIDFor(snap.entries, snap.counter))
	changed := !slices.Equal(s.entries, snap.entries) || next != s.nextID
	s.entries = snap.entries
	s.nextID = next
	s.mu.Unlock()

	if changed {
		s.log.Debug(ctx, "cache reloaded from mirror", "count", len(snap.entries), "next_id", next)
		s.publishLogs()
	}
}

// reload fetches the remote document into the cache and mirror. The caller
// holds the guard.
func (s *Store) reload(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.cfg
	st, err := s.machine.Begin(syncstate.Reload)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publishState(st)

	entries, token, err := s.fetch(ctx, cfg)
	if err != nil {
		s.log.Error(ctx, "remote reload failed", "err", err)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	next := nextIDFor(entries, s.nextID)
	s.entries = entries
	s.nextID = next
	s.token = token
	st, err = s.machine.Succeed(len(entries), s.now())
	s.mu.Unlock()

	s.log.Info(ctx, "remote reload", "count", len(entries), "next_id", next, "version", token)
	s.persist(ctx, entries, next)
	s.publishLogs()
	s.publishState(st)
	return err
}

func (s *Store) fetch(ctx context.Context, cfg models.SyncConfig) ([]models.LogEntry, models.VersionToken, error) {
	if err := s.checkRemote(cfg); err != nil {
		return nil, "", err
	}
	entries, token, err := s.remote.Fetch(ctx, cfg)
	if entries == nil {
		entries = []models.LogEntry{}
	}
	return entries, token, err
}
