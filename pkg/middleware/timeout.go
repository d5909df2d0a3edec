package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
)

// deadlineWriter stops the handler from writing once the request deadline
// has answered on its behalf.
type deadlineWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	expired  bool
	answered bool
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired || dw.answered {
		return
	}
	dw.answered = true
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.answered = true
	return dw.ResponseWriter.Write(b)
}

// expire marks the writer dead and reports whether the handler had already
// started its own response.
func (dw *deadlineWriter) expire() (answered bool) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	dw.expired = true
	answered = dw.answered
	dw.answered = true
	return answered
}

// RequestTimeout bounds the whole request. The handler keeps running with a
// cancelled context; a booking that loses its deadline before commit leaves
// nothing behind, so the caller gets a retryable TRANSIENT_ERROR.
func RequestTimeout(timeout time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			dw := &deadlineWriter{ResponseWriter: w}

			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if dw.expire() {
					return
				}
				log.Warn("Request deadline exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"timeout", timeout,
				)
				if err := httputil.WriteError(w, apperrors.Transient("Request timed out, please retry", ctx.Err())); err != nil {
					log.Error("failed to write timeout response", "error", err)
				}
			}
		})
	}
}
