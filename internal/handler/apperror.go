package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authentication required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Forbidden"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrPaymentNotFound    = &AppError{http.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found"}
	ErrRouteNotFound      = &AppError{http.StatusNotFound, "NOT_FOUND", "Not found"}
	ErrUserExists         = &AppError{http.StatusConflict, "USER_EXISTS", "User/account exists"}
	ErrRateLimited        = &AppError{http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later."}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)

// stateGuardError carries the transition-specific reason to the caller.
func stateGuardError(reason string) *AppError {
	return &AppError{http.StatusBadRequest, "INVALID_STATE_TRANSITION", reason}
}
