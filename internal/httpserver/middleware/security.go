package middleware

import (
	"fmt"
	"net/http"
)

// SecurityHeaders sets the headers of a JSON-only API: no sniffing, no
// framing, no active content.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			next.ServeHTTP(w, r)
		})
	}
}

// StrictTransportSecurity sets HSTS on HTTPS requests, including the ones
// terminated by a proxy.
func StrictTransportSecurity(maxAge int) func(http.Handler) http.Handler {
	hstsHeader := fmt.Sprintf("max-age=%d; includeSubDomains", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", hstsHeader)
			}
			next.ServeHTTP(w, r)
		})
	}
}
