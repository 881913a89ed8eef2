package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// AccessLog logs a START line before the handler runs and an END line after it.
// Both go through the request logger, so they carry the request ID.
// Expects RequestID, AttachLogger and Geo earlier in the chain.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())
		geo := GetCountryCode(r.Context())
		remote := remoteIP(r.RemoteAddr)

		logger.LogAttrs(r.Context(), slog.LevelInfo, "START",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("geo", geo),
			slog.String("remote_addr", remote),
		)

		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)

		logger.LogAttrs(r.Context(), levelForStatus(wrapped.status), "END",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status_code", wrapped.status),
			slog.String("elapsed", FormatElapsed(elapsed)),
			slog.Float64("duration_ms", float64(elapsed.Microseconds())/1000),
			slog.String("geo", geo),
			slog.String("remote_addr", remote),
			slog.String("user_agent", r.UserAgent()),
		)
	})
}

// levelForStatus maps 5xx to error, 4xx to warn, everything else to info.
func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// FormatElapsed renders d as "Xs Yms Zµs Wns".
func FormatElapsed(d time.Duration) string {
	ns := d.Nanoseconds()
	if ns < 0 {
		ns = 0
	}
	return fmt.Sprintf("%ds %dms %dµs %dns",
		ns/int64(time.Second),
		(ns%int64(time.Second))/int64(time.Millisecond),
		(ns%int64(time.Millisecond))/int64(time.Microsecond),
		ns%int64(time.Microsecond),
	)
}

// remoteIP strips the port from a RemoteAddr; RealIP may already have done so.
func remoteIP(addr string) string {
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
