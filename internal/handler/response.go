package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []domain.FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError is the single place lifecycle and account errors become
// HTTP statuses. Anything unrecognised is logged and reported as a generic 500.
func RespondDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		RespondValidationError(w, verr.Fields)
		return
	}

	var guard *domain.StateGuardError
	if errors.As(err, &guard) {
		RespondAppError(w, stateGuardError(guard.Reason), nil)
		return
	}

	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrForbidden):
		appErr = ErrForbidden
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrPaymentNotFound
	case errors.Is(err, domain.ErrUserExists):
		appErr = ErrUserExists
	case errors.Is(err, domain.ErrInvalidCredentials):
		appErr = ErrInvalidCredentials
	case errors.Is(err, domain.ErrInvalidRequest):
		appErr = ErrInvalidRequest
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}
