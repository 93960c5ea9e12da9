// Package mirror is the best-effort local copy of a store: a handful of
// named slots holding opaque bytes.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Mirror is a small key/value slot store.
type Mirror interface {
	// Get returns the slot value, or (nil, nil) when the slot is empty.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes all values or none.
	SetMany(ctx context.Context, values map[string][]byte) error
	// Delete is a no-op for an empty slot.
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"

	fileName = "mirror.db"
)

// FilePath is where the sqlite driver keeps its database inside dataDir.
func FilePath(dataDir string) string {
	return filepath.Join(dataDir, fileName)
}

// Open returns the mirror selected by driver. The sqlite driver creates
// dataDir if needed.
func Open(ctx context.Context, driver, dataDir string) (Mirror, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return OpenSQLite(ctx, FilePath(dataDir))
	default:
		return nil, fmt.Errorf("unknown mirror driver %q", driver)
	}
}
