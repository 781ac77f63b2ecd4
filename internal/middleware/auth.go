package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/swift-payments-portal/internal/auth"
	"github.com/josh-kwaku/swift-payments-portal/internal/handler"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
)

// Auth resolves the caller's identity from the session cookie or a Bearer
// header. It never checks roles; the lifecycle engine does that.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := tokenFromRequest(r)
			if !present {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}
			if token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			id, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), id)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", id.SubjectID, "role", id.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is present and lets
// the request through untouched otherwise.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := tokenFromRequest(r)
			if present && token != "" {
				if id, err := auth.ValidateToken(token, secret); err == nil {
					r = r.WithContext(auth.ContextWithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenFromRequest prefers the HttpOnly cookie the browser client uses and
// falls back to an Authorization header for API clients. present reports
// whether any credential was offered at all.
func tokenFromRequest(r *http.Request) (token string, present bool) {
	if c, err := r.Cookie(handler.TokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", true
	}
	return strings.TrimSpace(token), true
}
