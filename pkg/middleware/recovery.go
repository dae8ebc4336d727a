package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	apperrors "slotbook/pkg/errors"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
)

// Recovery turns a handler panic into a 500 with the standard error body.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.With("request_id", RequestID(r.Context())).Error("Handler panicked",
					"panic", rec,
					"route", r.Method+" "+r.URL.Path,
					"stack", string(debug.Stack()),
				)
				appErr := apperrors.Internal("Internal server error", nil)
				_ = httputil.WriteJSON(w, appErr.StatusCode(), httputil.ErrorResponse{
					Error: appErr.Message,
					Code:  appErr.Code,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
