package api

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/zyntracker/internal/models"
)

type syncResponse struct {
	State  models.SyncState   `json:"state"`
	Config *models.SyncConfig `json:"config"`
}

func (h *Handler) syncResponse() syncResponse {
	resp := syncResponse{State: h.store.SyncState()}
	if cfg, ok := h.store.Config(); ok {
		redacted := cfg.Redacted()
		resp.Config = &redacted
	}
	return resp
}

// SyncStatus reports the sync state and the saved configuration with the
// token redacted.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.syncResponse())
}

func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.SyncConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	if err := h.store.SaveConfig(r.Context(), cfg); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.syncResponse())
}

func (h *Handler) ClearConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearConfig(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.syncResponse())
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ReloadFromRemote(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.syncResponse())
}
