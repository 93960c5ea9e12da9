package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/stats"
)

type timestampRequest struct {
	Timestamp string `json:"timestamp"`
}

func decodeTimestamp(r *http.Request) (string, error) {
	var req timestampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("invalid body: %w", err)
	}
	return req.Timestamp, nil
}

func logID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errBadID, chi.URLParam(r, "id"))
	}
	return id, nil
}

// ListLogs returns every entry, newest first.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.All())
}

// AddLog records a new entry. An empty timestamp means now.
func (h *Handler) AddLog(w http.ResponseWriter, r *http.Request) {
	ts, err := decodeTimestamp(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if ts == "" {
		ts = models.FormatTimestamp(h.now())
	}

	e, err := h.store.Add(r.Context(), ts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	id, err := logID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ts, err := decodeTimestamp(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	e, err := h.store.Update(r.Context(), id, ts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) RemoveLog(w http.ResponseWriter, r *http.Request) {
	id, err := logID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV serves the CSV export as a download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="zyn-logs.csv"`)
	if err := h.store.WriteCSV(w); err != nil {
		h.log.Error(r.Context(), "csv export failed", "err", err)
	}
}

// Stats rolls the entries up. ?window is read leniently and clamped.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	window := h.defaultWindow
	if v := r.URL.Query().Get("window"); v != "" {
		window = stats.ParseWindow(v)
	}
	writeJSON(w, http.StatusOK, h.store.Stats(window, h.now()))
}
