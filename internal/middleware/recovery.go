package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// InternalErrorMessage is the only detail clients see for unexpected failures.
const InternalErrorMessage = "Something went wrong"

// Recoverer is a middleware that recovers from panics.
// It logs the panic with its stack and returns the generic 500 JSON body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			LoggerFromContext(r.Context()).Error("panic recovered",
				slog.Any("panic", rvr),
				slog.String("stack", string(debug.Stack())),
			)

			writeJSONError(w, http.StatusInternalServerError, InternalErrorMessage)
		}()

		next.ServeHTTP(w, r)
	})
}

// writeJSONError writes {"error": message} with the given status.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
