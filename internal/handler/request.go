package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/auth"
	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

const maxBodyBytes = 1 << 20

// TokenCookie is the HttpOnly cookie carrying the session token.
const TokenCookie = "token"

func identityFromRequest(r *http.Request) (domain.Identity, *AppError) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return domain.Identity{}, ErrMissingToken
	}
	return id, nil
}

// paymentIDFromPath maps a malformed id to uuid.Nil, which no payment has.
// The request still goes through the engine so the role check runs first
// and the caller sees the same not-found as for an unknown id.
func paymentIDFromPath(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decodeJSON: %w", err)
	}
	return nil
}

// looseString accepts a JSON string or number and keeps the literal text, so
// amounts like 100.10 reach the validator exactly as the client sent them.
// Any other JSON value becomes a string no allow-list matches, which the
// validator then reports against that field.
type looseString string

// unusableValue prefixes values of the wrong JSON type.
const unusableValue = "\x00"

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ""
	case b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = looseString(str)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = looseString(n.String())
	default:
		*s = looseString(unusableValue + string(b))
	}
	return nil
}
