package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// AccessLog logs one line per request with chi's request id. Requests slower
// than slow are logged at warn; slow <= 0 disables that.
func AccessLog(log zerolog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			evt := log.Info()
			switch {
			case status >= 500:
				evt = log.Error()
			case slow > 0 && elapsed >= slow:
				evt = log.Warn()
			}
			evt.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Msg("request done")
		})
	}
}
