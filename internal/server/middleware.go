package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/peviz/pkg/observability"
)

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// logRequests logs one line per request at info level, or warn for 5xx.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logf := s.logger.Info
		if ww.Status() >= http.StatusInternalServerError {
			logf = s.logger.Warn
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", requestID(r))
	})
}

// observe reports requests to the HTTP hooks keyed by route pattern. A
// panicking handler is still recorded, as a 500.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		panicked := true
		defer func() {
			status := ww.Status()
			switch {
			case panicked:
				status = http.StatusInternalServerError
			case status == 0:
				status = http.StatusOK
			}
			hooks.OnResponse(r.Context(), r.Method, routePattern(r), status, time.Since(start))
		}()

		next.ServeHTTP(ww, r)
		panicked = false
	})
}
