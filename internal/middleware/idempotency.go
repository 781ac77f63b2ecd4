package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/auth"
	"github.com/josh-kwaku/swift-payments-portal/internal/handler"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/repository"
)

type idempotencyRepository interface {
	Get(ctx context.Context, key string, userID uuid.UUID) (*repository.IdempotencyCacheEntry, error)
	Set(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
}

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "X-Idempotent-Replayed"
	idempotencyTTL    = 24 * time.Hour
	maxIdempotencyKey = 255
	maxReplayBody     = 1 << 20
)

// Idempotency lets a caller retry a write with the same Idempotency-Key and
// get the first response back instead of a second side effect. Keys are
// scoped to the caller. Requests without the header are not tracked, and
// 5xx responses are never stored so a retry can still succeed.
func Idempotency(repo idempotencyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKey {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}

			caller, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReplayBody))
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			log := logging.FromContext(r.Context()).With("idempotency_key", key)
			fingerprint := requestFingerprint(r.Method, r.URL.Path, body)

			prior, err := repo.Get(r.Context(), key, caller.SubjectID)
			switch {
			case err != nil:
				log.Error("idempotency lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
			case prior == nil:
				capture := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
				next.ServeHTTP(capture, r)
				remember(r.Context(), log, repo, key, caller.SubjectID, fingerprint, capture)
			case prior.RequestHash != fingerprint:
				handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
			default:
				replay(w, log, prior)
			}
		})
	}
}

func replay(w http.ResponseWriter, log *slog.Logger, prior *repository.IdempotencyCacheEntry) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(prior.StatusCode)
	if _, err := w.Write(prior.ResponseBody); err != nil {
		log.Error("failed to write replayed response", "error", err)
	}
}

func remember(ctx context.Context, log *slog.Logger, repo idempotencyRepository, key string, userID uuid.UUID, fingerprint string, capture *capturingWriter) {
	if capture.status >= http.StatusInternalServerError {
		return
	}

	stored := time.Now().UTC()
	err := repo.Set(ctx, &repository.IdempotencyCacheEntry{
		Key:          key,
		UserID:       userID,
		RequestHash:  fingerprint,
		StatusCode:   capture.status,
		ResponseBody: capture.body.Bytes(),
		CreatedAt:    stored,
		ExpiresAt:    stored.Add(idempotencyTTL),
	})
	if err != nil {
		log.Error("failed to store idempotent response", "error", err)
	}
}

// requestFingerprint detects a key reused for a different request.
func requestFingerprint(method, path string, body []byte) string {
	sum := sha256.Sum256(bytes.Join([][]byte{[]byte(method), []byte(path), body}, []byte{0}))
	return hex.EncodeToString(sum[:])
}

// capturingWriter passes the response through while keeping a copy to store.
type capturingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *capturingWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *capturingWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *capturingWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}
