package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/auth"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/importer"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/lock"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/service"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// statusFor maps service and import errors onto HTTP statuses.
func statusFor(err error) (int, errorBody) {
	var upstream *importer.UpstreamError
	switch {
	case errors.As(err, &upstream):
		body := errorBody{Error: "playlist import failed", Reason: string(upstream.Reason)}
		switch upstream.Reason {
		case importer.ReasonNotFound:
			return http.StatusNotFound, body
		case importer.ReasonQuotaExceeded:
			return http.StatusTooManyRequests, body
		default:
			return http.StatusBadGateway, body
		}
	case errors.Is(err, importer.ErrNoVideosProcessed):
		return http.StatusUnprocessableEntity, errorBody{Error: "no videos could be imported from this playlist"}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, service.ErrAlreadyImported):
		return http.StatusConflict, errorBody{Error: "playlist already imported"}
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, errorBody{Error: "user already exists"}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Error: "invalid credentials"}
	case errors.Is(err, lock.ErrNotAcquired):
		return http.StatusServiceUnavailable, errorBody{Error: "busy, try again"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error"}
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	} else {
		h.log.Info("request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
