package middleware

import (
	"net/http"

	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
)

// MaxRequestSize caps request bodies at limit bytes. A declared length over
// the limit is rejected before the handler runs; a streamed body fails when
// the handler reads past the limit. A limit of zero or less disables the cap.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				_ = httputil.WriteError(w, apperrors.PayloadTooLarge(limit))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
