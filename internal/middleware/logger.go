package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/audiosessions/backend/internal/logging"
	"github.com/audiosessions/backend/internal/metrics"
)

// quietPrefixes are static asset paths left out of the access log.
var quietPrefixes = []string{"/attached_assets/"}

// RequestLogger writes one structured access log line per request and feeds
// the HTTP metrics.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := routePattern(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		if quiet(r.URL.Path) {
			return
		}

		event := logging.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logging.Error()
		case status >= http.StatusBadRequest:
			event = logging.Warn()
		}
		event.
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("remote_ip", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Msg("request handled")
	})
}

// routePattern keeps the metric label set bounded: unmatched paths collapse to
// a single value instead of leaking arbitrary URLs.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func quiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
