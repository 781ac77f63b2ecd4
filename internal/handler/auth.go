package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/service/user"
	"github.com/josh-kwaku/swift-payments-portal/internal/validation"
)

type userService interface {
	Register(ctx context.Context, in validation.RegistrationInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*user.Session, error)
	Me(ctx context.Context, id domain.Identity) (*domain.User, error)
}

type AuthHandler struct {
	users        userService
	secureCookie bool
}

// NewAuthHandler builds the account endpoints. secureCookie marks the
// session cookie Secure and should be on everywhere except local development.
func NewAuthHandler(users userService, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, secureCookie: secureCookie}
}

type registerRequest struct {
	FullName      looseString `json:"fullName"`
	IDNumber      looseString `json:"idNumber"`
	AccountNumber looseString `json:"accountNumber"`
	Username      looseString `json:"username"`
	Password      string      `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userDTO struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	FullName string    `json:"fullName"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type meResponse struct {
	User *userDTO `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:       u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		FullName: u.FullName,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	_, err := h.users.Register(r.Context(), validation.RegistrationInput{
		FullName:      string(req.FullName),
		IDNumber:      string(req.IDNumber),
		AccountNumber: string(req.AccountNumber),
		Username:      string(req.Username),
		Password:      req.Password,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("registration rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, messageResponse{Message: "Registered"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	session, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token: session.Token,
		User:  toUserDTO(session.User),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	RespondSuccess(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// Me never fails authentication: an absent or stale session reads as no user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, appErr := identityFromRequest(r)
	if appErr != nil {
		RespondSuccess(w, http.StatusOK, meResponse{})
		return
	}

	u, err := h.users.Me(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondSuccess(w, http.StatusOK, meResponse{})
			return
		}
		RespondDomainError(w, err)
		return
	}

	dto := toUserDTO(u)
	RespondSuccess(w, http.StatusOK, meResponse{User: &dto})
}
