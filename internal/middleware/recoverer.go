package middleware

import (
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/audiosessions/backend/internal/logging"
	"github.com/audiosessions/backend/pkg/utils"
)

// Recoverer turns handler panics into the generic JSON 500 body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logging.Error().
				Interface("panic", rec).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			if r.Header.Get("Connection") != "Upgrade" {
				utils.RespondErr(w, utils.InternalError(""))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
