package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/validation"
)

const (
	ReasonVerifyRequiresPending  = "Only pending can be verified"
	ReasonSubmitRequiresVerified = "Payment must be verified first"
)

// Store is the persistence contract the lifecycle engine relies on.
// Transition must apply change only while the stored status equals from,
// returning domain.ErrStatusConflict otherwise.
type Store interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
	Transition(ctx context.Context, id uuid.UUID, from domain.PaymentStatus, change domain.StatusChange) (*domain.Payment, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Service) Create(ctx context.Context, actor domain.Identity, in validation.PaymentInput) (*domain.Payment, error) {
	log := logging.FromContext(ctx)

	if err := s.CanCreate(actor); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	draft, err := validation.ValidatePayment(in)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	now := s.now()
	p := &domain.Payment{
		ID:           uuid.New(),
		CustomerID:   actor.SubjectID,
		Amount:       draft.Amount,
		Currency:     draft.Currency,
		Provider:     draft.Provider,
		PayeeAccount: draft.PayeeAccount,
		SwiftCode:    draft.SwiftCode,
		Status:       domain.PaymentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("payment created",
		"payment_id", p.ID,
		"customer_id", p.CustomerID,
		"amount", p.Amount.StringFixed(2),
		"currency", p.Currency,
	)

	return p, nil
}

// CanCreate reports whether actor may create payments at all. Callers use
// it to reject the wrong role before reading the request body.
func (s *Service) CanCreate(actor domain.Identity) error {
	return requireRole(actor, domain.RoleCustomer)
}

func (s *Service) List(ctx context.Context, actor domain.Identity) ([]domain.Payment, error) {
	if err := requireRole(actor, domain.RoleEmployee); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	payments, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return payments, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	if err := requireRole(actor, domain.RoleEmployee); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (s *Service) Verify(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	if err := requireRole(actor, domain.RoleEmployee); err != nil {
		return nil, fmt.Errorf("Verify: %w", err)
	}

	verifier := actor.SubjectID
	p, err := s.store.Transition(ctx, id, domain.PaymentStatusPending, domain.StatusChange{
		Status:     domain.PaymentStatusVerified,
		VerifiedBy: &verifier,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("Verify: %w", guardError(err, domain.TransitionVerify, ReasonVerifyRequiresPending))
	}

	logging.Audit(ctx).Info("payment verified",
		"payment_id", p.ID,
		"verified_by", verifier,
	)

	return p, nil
}

// Submit forwards a verified payment to the settlement network. The network
// is simulated: the transition is recorded and an audit line is emitted.
func (s *Service) Submit(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	if err := requireRole(actor, domain.RoleEmployee); err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}

	now := s.now()
	p, err := s.store.Transition(ctx, id, domain.PaymentStatusVerified, domain.StatusChange{
		Status:      domain.PaymentStatusSubmitted,
		SubmittedAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("Submit: %w", guardError(err, domain.TransitionSubmit, ReasonSubmitRequiresVerified))
	}

	logging.Audit(ctx).Info("payment submitted to settlement network",
		"payment_id", p.ID,
		"submitted_by", actor.SubjectID,
		"provider", p.Provider,
		"swift_code", p.SwiftCode,
		"amount", p.Amount.StringFixed(2),
		"currency", p.Currency,
	)

	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	if err := requireRole(actor, domain.RoleEmployee); err != nil {
		return nil, fmt.Errorf("Delete: %w", err)
	}

	p, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Delete: %w", err)
	}

	logging.Audit(ctx).Info("payment deleted",
		"payment_id", p.ID,
		"deleted_by", actor.SubjectID,
		"amount", p.Amount.StringFixed(2),
		"currency", p.Currency,
		"status", p.Status,
		"customer_id", p.CustomerID,
	)

	return p, nil
}

func requireRole(actor domain.Identity, role domain.Role) error {
	if actor.Role != role {
		return domain.ErrForbidden
	}
	return nil
}

func guardError(err error, t domain.Transition, reason string) error {
	if errors.Is(err, domain.ErrStatusConflict) {
		return &domain.StateGuardError{Transition: t, Reason: reason}
	}
	return err
}
