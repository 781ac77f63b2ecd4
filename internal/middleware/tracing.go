package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const traceIDHeader = "X-Request-ID"

// Client-supplied ids end up in logs, so only plain tokens are echoed.
var traceIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

type traceIDKey struct{}

func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if !traceIDRe.MatchString(traceID) {
			traceID = uuid.New().String()
		}

		w.Header().Set(traceIDHeader, traceID)
		ctx := context.WithValue(r.Context(), traceIDKey{}, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TraceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}
