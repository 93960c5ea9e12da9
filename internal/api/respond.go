package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/zyntracker/internal/common"
)

var errBadID = errors.New("invalid log id")

type errorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps a store error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidTimestamp),
		errors.Is(err, common.ErrRemoteConfig),
		errors.Is(err, errBadID):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrVersionConflict),
		errors.Is(err, common.ErrSyncDisabled):
		return http.StatusConflict
	case errors.Is(err, common.ErrRemote):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
