package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

// Logger attaches a request scoped logger to the context, retrievable with
// zerolog.Ctx, and writes one access log line per request. It must run after
// RequestID.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := l.With().Str("request_id", RequestIDFromContext(r.Context())).Logger()
			ctx := reqLogger.WithContext(r.Context())

			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			event := reqLogger.Info()
			if rw.status >= http.StatusInternalServerError {
				event = reqLogger.Error()
			} else if rw.status >= http.StatusBadRequest {
				event = reqLogger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
