package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "slotbook/pkg/errors"
	httputil "slotbook/pkg/http"
)

// deadlineWriter lets exactly one side answer: the handler, or the timeout.
// The handler writes headers into its own map, which reaches the real
// writer only when the handler answers before the deadline.
type deadlineWriter struct {
	http.ResponseWriter

	header  http.Header
	mu      sync.Mutex
	started bool
	expired bool
}

func newDeadlineWriter(w http.ResponseWriter) *deadlineWriter {
	return &deadlineWriter{ResponseWriter: w, header: make(http.Header)}
}

func (dw *deadlineWriter) Header() http.Header {
	return dw.header
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired || dw.started {
		return
	}
	dw.startLocked(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	if !dw.started {
		dw.startLocked(http.StatusOK)
	}
	return dw.ResponseWriter.Write(b)
}

func (dw *deadlineWriter) startLocked(code int) {
	dw.started = true
	copyHeader(dw.ResponseWriter.Header(), dw.header)
	dw.ResponseWriter.WriteHeader(code)
}

// finish hands over the headers of a handler that returned without writing.
func (dw *deadlineWriter) finish() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if !dw.started && !dw.expired {
		copyHeader(dw.ResponseWriter.Header(), dw.header)
	}
}

// expire reports whether the timeout may still answer.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.expired = true
	return !dw.started
}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
}

// RequestTimeout bounds the request context. Work that must outlive the
// client, such as an in-flight booking submission, detaches from it.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := newDeadlineWriter(w)
			finished := make(chan any, 1)
			go func() {
				var rec any
				defer func() { finished <- rec }()
				defer func() { rec = recover() }()
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case rec := <-finished:
				if rec != nil {
					// Recovery sits on this goroutine.
					panic(rec)
				}
				dw.finish()
			case <-ctx.Done():
				if dw.expire() {
					_ = httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{
						Error: "Request timeout",
						Code:  apperrors.CodeTimeout,
					})
				}
			}
		})
	}
}
