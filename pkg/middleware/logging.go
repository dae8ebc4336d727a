package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"slotbook/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// statusRecorder remembers the first status the handler sent.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status != 0 {
		return
	}
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

func (sr *statusRecorder) code() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}

// RequestLogging tags every request with an ID, reusing X-Request-ID when
// the caller sent a valid UUID, and echoes it on the response.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := incomingRequestID(r)
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			reqLog := log.With("request_id", id, "method", r.Method, "path", r.URL.Path)
			reqLog.Debug("HTTP request started", "remote_addr", r.RemoteAddr)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.code()
			elapsed := time.Since(start).Milliseconds()
			if status >= http.StatusInternalServerError {
				reqLog.Warn("HTTP request completed", "status", status, "duration_ms", elapsed)
				return
			}
			reqLog.Info("HTTP request completed", "status", status, "duration_ms", elapsed)
		})
	}
}

func incomingRequestID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// RequestID returns the ID RequestLogging stored on ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
