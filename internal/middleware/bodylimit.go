package middleware

import (
	"net/http"

	"github.com/audiosessions/backend/pkg/utils"
)

// BodyLimit caps request bodies at limit bytes. Declared oversize bodies are
// rejected up front; streamed ones fail on read with *http.MaxBytesError.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				utils.RespondErr(w, utils.PayloadTooLarge())
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
