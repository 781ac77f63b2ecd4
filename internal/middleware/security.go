package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/unrolled/secure"
)

// SecureHeaders sets the browser hardening headers. HSTS is only sent over
// TLS and is skipped entirely in development.
func SecureHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none'; object-src 'none'",
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
		IsDevelopment:         isDevelopment,
	}).Handler
}

// CORS admits the configured browser client only, with credentials so the
// session cookie is sent.
func CORS(origin string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", idempotencyHeader, traceIDHeader},
		ExposedHeaders:   []string{traceIDHeader, replayedHeader, "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler
}
