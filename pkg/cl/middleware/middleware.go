package middleware

import (
	"net/http"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// DefaultStack applies the default middleware stack to a router.
func DefaultStack(r chi.Router, log logger.Logger) {
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
}

// RequestLogger writes one access line per request at debug level, and at
// error level for 5xx responses.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			line := log.With(
				"request_id", chimw.GetReqID(r.Context()),
				"status", status,
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start).String(),
			)
			if status >= http.StatusInternalServerError {
				line.Errorf("%s %s", r.Method, r.URL.Path)
				return
			}
			line.Debugf("%s %s", r.Method, r.URL.Path)
		})
	}
}

// Security sets conservative security headers on API responses. It must not
// wrap published sites, whose inline scripts a self-only CSP would block.
func Security(next http.Handler) http.Handler {
	const (
		csp   = "default-src 'none'; frame-ancestors 'none'"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if h.Get("Content-Security-Policy") == "" {
			h.Set("Content-Security-Policy", csp)
		}
		if h.Get("X-Frame-Options") == "" {
			h.Set("X-Frame-Options", xfo)
		}
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)
		next.ServeHTTP(w, r)
	})
}

// NoSniff only disables MIME sniffing; used for published documents.
func NoSniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}
