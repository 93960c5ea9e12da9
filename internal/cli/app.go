package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/config"
	"github.com/dmitrijs2005/zyntracker/internal/logging"
	"github.com/dmitrijs2005/zyntracker/internal/logstore"
	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/stats"
)

// Store is the set of store operations the commands use.
type Store interface {
	All() []models.LogEntry
	Add(ctx context.Context, timestamp string) (models.LogEntry, error)
	Update(ctx context.Context, id int64, timestamp string) (models.LogEntry, error)
	Remove(ctx context.Context, id int64) error
	WriteCSV(w io.Writer) error
	Stats(windowDays int, now time.Time) models.Stats

	SyncState() models.SyncState
	Config() (models.SyncConfig, bool)
	SaveConfig(ctx context.Context, cfg models.SyncConfig) error
	ClearConfig(ctx context.Context) error
	ReloadFromRemote(ctx context.Context) error
}

// OpenFunc opens the store described by cfg.
type OpenFunc func(ctx context.Context, cfg *config.Config, log logging.Logger) (Store, func() error, error)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// App carries the state shared by all commands of one invocation.
type App struct {
	open  OpenFunc
	log   logging.Logger
	now   func() time.Time
	out   io.Writer
	in    *bufio.Reader
	store Store
	close func() error

	cfg     *config.Config
	format  string
	cfgPath string
	dataDir string
	mirror  string
	remote  string
}

type Option func(*App)

// WithStore skips opening a store from configuration.
func WithStore(s Store) Option {
	return func(a *App) { a.store = s }
}

func WithOpener(open OpenFunc) Option {
	return func(a *App) { a.open = open }
}

func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

func NewApp(opts ...Option) *App {
	a := &App{
		open:   openStore,
		log:    logging.Nop(),
		now:    time.Now,
		out:    os.Stdout,
		in:     bufio.NewReader(os.Stdin),
		format: FormatText,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func openStore(ctx context.Context, cfg *config.Config, log logging.Logger) (Store, func() error, error) {
	s, closeFn, err := logstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return s, closeFn, nil
}

// settings resolves defaults, the optional JSON file and the persistent
// flags, in that order.
func (a *App) settings() (*config.Config, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if a.cfgPath != "" {
		var err error
		if cfg, err = loadFile(a.cfgPath); err != nil {
			return nil, err
		}
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.mirror != "" {
		cfg.MirrorDriver = a.mirror
	}
	if a.remote != "" {
		cfg.RemoteDriver = a.remote
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile turns the config loader's panics into an error.
func loadFile(path string) (cfg *config.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load config %s: %v", path, r)
		}
	}()
	return config.Load([]string{"-c", path}), nil
}

func (a *App) ensureStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	cfg, err := a.settings()
	if err != nil {
		return err
	}
	s, closeFn, err := a.open(ctx, cfg, a.log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.store = s
	a.close = closeFn
	return nil
}

// Close releases a store opened by the app.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	err := a.close()
	a.close = nil
	return err
}

func (a *App) defaultWindow() int {
	if a.cfg != nil {
		return stats.ClampWindow(a.cfg.DefaultWindow)
	}
	return stats.DefaultWindow
}
