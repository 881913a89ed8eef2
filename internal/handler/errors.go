package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/userbase/userbase/internal/middleware"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPError carries an explicit status and a client-safe message.
// Handlers return it to pick the reply; Err, if set, is only logged.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

// NewHTTPError returns an HTTPError with the given status and message.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// HandlerFunc is an http.HandlerFunc that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to net/http and turns its error into a JSON reply.
// An *HTTPError is written as-is. Anything else is logged and becomes a generic 500.
func Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := middleware.LoggerFromContext(r.Context())

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request_failed", slog.Int("status_code", httpErr.Status), slog.Any("error", err))
		}
		writeJSON(w, httpErr.Status, ErrorResponse{Error: httpErr.Message})
		return
	}

	logger.Error("unhandled_error", slog.Any("error", err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: middleware.InternalErrorMessage})
}
