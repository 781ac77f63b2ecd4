package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/validation"
)

type paymentService interface {
	CanCreate(actor domain.Identity) error
	Create(ctx context.Context, actor domain.Identity, in validation.PaymentInput) (*domain.Payment, error)
	List(ctx context.Context, actor domain.Identity) ([]domain.Payment, error)
	Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error)
	Verify(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error)
	Submit(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error)
	Delete(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	Amount       looseString `json:"amount"`
	Currency     looseString `json:"currency"`
	Provider     looseString `json:"provider"`
	PayeeAccount looseString `json:"payeeAccount"`
	SwiftCode    looseString `json:"swiftCode"`
}

type ownerDTO struct {
	FullName      string `json:"fullName"`
	AccountNumber string `json:"accountNumber"`
	Username      string `json:"username"`
}

type paymentDTO struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customerId"`
	Amount       string     `json:"amount"`
	Currency     string     `json:"currency"`
	Provider     string     `json:"provider"`
	PayeeAccount string     `json:"payeeAccount"`
	SwiftCode    string     `json:"swiftCode"`
	Status       string     `json:"status"`
	VerifiedBy   *uuid.UUID `json:"verifiedBy"`
	SubmittedAt  *time.Time `json:"submittedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Customer     *ownerDTO  `json:"customer,omitempty"`
}

type deletedPaymentDTO struct {
	ID         uuid.UUID `json:"id"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CustomerID uuid.UUID `json:"customerId"`
}

func toPaymentDTO(p *domain.Payment) paymentDTO {
	dto := paymentDTO{
		ID:           p.ID,
		CustomerID:   p.CustomerID,
		Amount:       p.Amount.StringFixed(2),
		Currency:     string(p.Currency),
		Provider:     string(p.Provider),
		PayeeAccount: p.PayeeAccount,
		SwiftCode:    p.SwiftCode,
		Status:       string(p.Status),
		VerifiedBy:   p.VerifiedBy,
		SubmittedAt:  p.SubmittedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Owner != nil {
		dto.Customer = &ownerDTO{
			FullName:      p.Owner.FullName,
			AccountNumber: p.Owner.AccountNumber,
			Username:      p.Owner.Username,
		}
	}
	return dto
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, appErr := identityFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.payments.CanCreate(actor); err != nil {
		RespondDomainError(w, err)
		return
	}

	var req createPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	p, err := h.payments.Create(r.Context(), actor, validation.PaymentInput{
		Amount:       string(req.Amount),
		Currency:     string(req.Currency),
		Provider:     string(req.Provider),
		PayeeAccount: string(req.PayeeAccount),
		SwiftCode:    string(req.SwiftCode),
	})
	if err != nil {
		log.Warn("payment creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/staff/payments/%s", p.ID))
	RespondSuccess(w, http.StatusCreated, toPaymentDTO(p))
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, appErr := identityFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	payments, err := h.payments.List(r.Context(), actor)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]paymentDTO, len(payments))
	for i := range payments {
		dtos[i] = toPaymentDTO(&payments[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "payment lookup failed", h.payments.Get)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "payment verification rejected", h.payments.Verify)
}

func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "payment submission rejected", h.payments.Submit)
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, appErr := identityFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	paymentID := paymentIDFromPath(r)

	p, err := h.payments.Delete(r.Context(), actor, paymentID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment deletion rejected", "payment_id", paymentID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, deletedPaymentDTO{
		ID:         p.ID,
		Amount:     p.Amount.StringFixed(2),
		Currency:   string(p.Currency),
		Status:     string(p.Status),
		CustomerID: p.CustomerID,
	})
}

type paymentOp func(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error)

// transition handles the id-addressed operations that answer with the full
// updated payment.
func (h *PaymentHandler) transition(w http.ResponseWriter, r *http.Request, failMsg string, op paymentOp) {
	actor, appErr := identityFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	paymentID := paymentIDFromPath(r)

	p, err := op(r.Context(), actor, paymentID)
	if err != nil {
		logging.FromContext(r.Context()).Warn(failMsg, "payment_id", paymentID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(p))
}
