// Package api exposes a Store over HTTP. Every handler is a pass-through to
// one store operation.
//
// Routes:
//
//	GET    /api/logs          → All
//	POST   /api/logs          → Add
//	PUT    /api/logs/{id}     → Update
//	DELETE /api/logs/{id}     → Remove
//	GET    /api/logs.csv      → WriteCSV
//	GET    /api/stats         → Stats
//	GET    /api/sync          → SyncState and Config
//	PUT    /api/sync/config   → SaveConfig
//	DELETE /api/sync/config   → ClearConfig
//	POST   /api/sync/reload   → ReloadFromRemote
//	GET    /api/feed          → websocket of Subscribe and SubscribeSync
//	GET    /healthz
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/zyntracker/internal/logging"
	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/stats"
)

// Store is the set of store operations the API serves.
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

	Subscribe(fn func([]models.LogEntry)) (unsubscribe func())
	SubscribeSync(fn func(models.SyncState)) (unsubscribe func())
}

// Handler holds the dependencies shared by all routes.
type Handler struct {
	store         Store
	log           logging.Logger
	now           func() time.Time
	defaultWindow int
}

type Option func(*Handler)

func WithLogger(l logging.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithClock replaces time.Now for new entries and stats.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithDefaultWindow sets the daily window used when ?window is absent.
func WithDefaultWindow(days int) Option {
	return func(h *Handler) { h.defaultWindow = stats.ClampWindow(days) }
}

func NewHandler(store Store, opts ...Option) *Handler {
	h := &Handler{
		store:         store,
		log:           logging.Nop(),
		now:           time.Now,
		defaultWindow: stats.DefaultWindow,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter mounts the API on a chi router with request ids, panic
// recovery and request logging.
func NewRouter(store Store, opts ...Option) http.Handler {
	h := NewHandler(store, opts...)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(WithRequestLogging(h.log))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/logs", h.ListLogs)
		r.Post("/logs", h.AddLog)
		r.Get("/logs.csv", h.ExportCSV)
		r.Put("/logs/{id}", h.UpdateLog)
		r.Delete("/logs/{id}", h.RemoveLog)

		r.Get("/stats", h.Stats)

		r.Route("/sync", func(r chi.Router) {
			r.Get("/", h.SyncStatus)
			r.Put("/config", h.SaveConfig)
			r.Delete("/config", h.ClearConfig)
			r.Post("/reload", h.Reload)
		})

		r.Get("/feed", h.Feed)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
