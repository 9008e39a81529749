package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ycintel/internal/platform/logger"
	pnet "ycintel/internal/platform/net"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow marks requests taking >= Slow as warn, 0 disables slow marking
	Slow time.Duration
}

// statusRecorder remembers the status and body size the handler produced
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

// AccessLogZerolog writes one "request done" line per request.
// 5xx lines are error level, slow ones warn, the rest info. The chi route
// pattern is logged next to the raw path so /v1/companies/{key} groups cleanly
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()))
			r = r.WithContext(ctx)

			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sr, r)
			elapsed := time.Since(start)

			log := logger.C(ctx)
			evt := log.Info()
			switch {
			case sr.status >= http.StatusInternalServerError:
				evt = log.Error()
			case opt.Slow > 0 && elapsed >= opt.Slow:
				evt = log.Warn()
			}
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pat := rc.RoutePattern(); pat != "" {
					evt = evt.Str("route", pat)
				}
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sr.status).
				Int("bytes", sr.size).
				Dur("elapsed", elapsed).
				Msg("request done")
		})
	}
}
