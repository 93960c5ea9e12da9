package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// degrade switches the store to memory-only for the rest of its life.
func (s *Store) degrade(ctx context.Context, op string, err error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	if !already {
		s.storageErr = fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	s.mu.Unlock()

	if !already {
		s.log.Warn(ctx, "local mirror unavailable, continuing in memory only", "op", op, "err", err)
	}
}

// persist writes entries and the counter to the mirror. Failures degrade
// the store and are otherwise ignored.
func (s *Store) persist(ctx context.Context, entries []models.LogEntry, nextID int64) {
	if s.Degraded() {
		return
	}

	data, err := json.Marshal(entries)
	if err != nil {
		s.degrade(ctx, "persist", err)
		return
	}

	err = s.mirror.SetMany(context.WithoutCancel(ctx), map[string][]byte{
		common.LogsSlot:   data,
		common.NextIDSlot: []byte(strconv.FormatInt(nextID, 10)),
	})
	if err != nil {
		s.degrade(ctx, "persist", err)
	}
}

func (s *Store) persistCounter(ctx context.Context, nextID int64) {
	if s.Degraded() {
		return
	}
	err := s.mirror.Set(context.WithoutCancel(ctx), common.NextIDSlot, []byte(strconv.FormatInt(nextID, 10)))
	if err != nil {
		s.degrade(ctx, "persist counter", err)
	}
}

func (s *Store) persistConfig(ctx context.Context, cfg models.SyncConfig) {
	if s.Degraded() {
		return
	}
	data, err := json.Marshal(cfg)
	if err == nil {
		err = s.mirror.Set(context.WithoutCancel(ctx), common.SyncConfigSlot, data)
	}
	if err != nil {
		s.degrade(ctx, "persist config", err)
	}
}

func (s *Store) deleteConfig(ctx context.Context) {
	if s.Degraded() {
		return
	}
	if err := s.mirror.Delete(context.WithoutCancel(ctx), common.SyncConfigSlot); err != nil {
		s.degrade(ctx, "delete config", err)
	}
}

// mirrorSnapshot is what the mirror holds.
type mirrorSnapshot struct {
	entries []models.LogEntry
	// counter is the persisted next id, 0 when absent or not an integer
	counter int64
}

// readMirror reads the entry and counter slots. ok is false when the mirror
// is unusable; the store is degraded in that case.
func (s *Store) readMirror(ctx context.Context) (snap mirrorSnapshot, ok bool) {
	snap.entries = []models.LogEntry{}
	if s.Degraded() {
		return snap, false
	}

	raw, err := s.mirror.Get(ctx, common.LogsSlot)
	if err != nil {
		s.degrade(ctx, "read logs", err)
		return snap, false
	}
	if len(raw) > 0 {
		entries, err := models.DecodeEntries(raw)
		if err != nil {
			s.log.Warn(ctx, "persisted logs are not a JSON array, ignoring them", "err", err)
		} else {
			snap.entries = entries
		}
	}

	rawNext, err := s.mirror.Get(ctx, common.NextIDSlot)
	if err != nil {
		s.degrade(ctx, "read counter", err)
		return snap, false
	}
	snap.counter = parseCounter(string(rawNext))
	return snap, true
}

// parseCounter reads a leading decimal integer, 0 when there is none.
func parseCounter(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[0] == '-' || s[0] == '+')) {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// nextIDFor applies the counter rule: max id + 1, unless the stored counter
// is strictly greater.
func nextIDFor(entries []models.LogEntry, counter int64) int64 {
	maxID := models.MaxID(entries)
	if counter > maxID {
		return counter
	}
	return maxID + 1
}

func (s *Store) readConfig(ctx context.Context) (models.SyncConfig, bool) {
	if s.Degraded() {
		return models.SyncConfig{}, false
	}
	raw, err := s.mirror.Get(ctx, common.SyncConfigSlot)
	if err != nil {
		s.degrade(ctx, "read config", err)
		return models.SyncConfig{}, false
	}
	if len(raw) == 0 {
		return models.SyncConfig{}, false
	}

	var cfg models.SyncConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.log.Warn(ctx, "persisted sync config is not valid JSON, ignoring it", "err", err)
		return models.SyncConfig{}, false
	}
	return cfg.Normalized(), true
}
