package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperr "surgepark/internal/errors"
	"surgepark/internal/service"
)

const maxBodyBytes = int64(65536)

type errorResponse struct {
	Error              string `json:"error"`
	Reason             string `json:"reason,omitempty"`
	ActiveOverlapCount *int   `json:"active_overlap_count,omitempty"`
	Capacity           *int   `json:"capacity,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "err", err)
	}
}

// writeError maps err to a status. A refused admission answers 409 with
// the reason, it is not logged as a failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *service.NotAdmittedError
	if errors.As(err, &rejected) {
		av := rejected.Availability
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:              "reservation not admitted",
			Reason:             av.Reason,
			ActiveOverlapCount: &av.ActiveOverlapCount,
			Capacity:           &av.Capacity,
		})
		return
	}

	status := apperr.StatusCode(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
		if status == http.StatusInternalServerError {
			msg = http.StatusText(status)
		}
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
