package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/garnizeh/crm/internal/apperr"
	"github.com/getsentry/sentry-go"
)

const msgInvalidBody = "Invalid request body."

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("err", err))
	}
}

func writeMessage(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, messageResponse{Message: msg}, status)
}

// writeError maps err to a status code and a {message} body. Errors that are
// not one of the apperr kinds become a 500 carrying fallback, so internals
// never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, errInvalidBody):
		writeMessage(w, msgInvalidBody, http.StatusBadRequest)
	case errors.Is(err, apperr.ErrValidation):
		writeMessage(w, apperr.MessageOf(err, msgInvalidBody), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrAuth):
		writeMessage(w, apperr.MessageOf(err, "Authentication required."), http.StatusUnauthorized)
	case errors.Is(err, apperr.ErrNotFound):
		writeMessage(w, apperr.MessageOf(err, "Not found."), http.StatusNotFound)
	case errors.Is(err, apperr.ErrConflict):
		writeMessage(w, apperr.MessageOf(err, "Conflict."), http.StatusConflict)
	case errors.Is(err, apperr.ErrConfig):
		logger.Error("server misconfiguration", slog.String("path", r.URL.Path), slog.Any("err", err))
		writeMessage(w, apperr.MessageOf(err, fallback), http.StatusInternalServerError)
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.Any("err", err),
		)
		captureError(r, err)
		writeMessage(w, fallback, http.StatusInternalServerError)
	}
}

// captureError reports err to Sentry. Without a configured client this is a
// no-op.
func captureError(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTag("request_id", RequestIDFromContext(r.Context()))
		hub.CaptureException(err)
	})
}
