package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
)

// deadlineWriter guards the real writer so that exactly one of the handler
// and the deadline gets to answer. Handler headers are buffered and copied
// out on the first write.
type deadlineWriter struct {
	w        http.ResponseWriter
	header   http.Header
	mu       sync.Mutex
	expired  bool
	answered bool
}

func (dw *deadlineWriter) Header() http.Header {
	return dw.header
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired || dw.answered {
		return
	}
	dw.answer(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	if !dw.answered {
		dw.answer(http.StatusOK)
	}
	return dw.w.Write(b)
}

func (dw *deadlineWriter) answer(code int) {
	dst := dw.w.Header()
	for k, v := range dw.header {
		dst[k] = v
	}
	dw.answered = true
	dw.w.WriteHeader(code)
}

// expire claims the response for the deadline. It reports false when the
// handler already started answering.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	dw.expired = true
	return !dw.answered
}

// RequestTimeout bounds every request context by timeout. When the handler
// has not answered by then the client gets a 504 TIMEOUT error body; the
// handler keeps running until it notices its cancelled context.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := &deadlineWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if dw.expire() {
					_ = httputil.WriteError(w, apperrors.Timeout("Request timed out"))
				}
			}
		})
	}
}
