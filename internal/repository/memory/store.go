// Package memory provides an in-process Payment Store for tests and local
// experiments. It satisfies the same contract as the SQL repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]domain.Payment
	owners   map[uuid.UUID]domain.PaymentOwner
}

func NewStore() *Store {
	return &Store{
		payments: make(map[uuid.UUID]domain.Payment),
		owners:   make(map[uuid.UUID]domain.PaymentOwner),
	}
}

// AddOwner registers the customer fields joined onto payments they own.
func (s *Store) AddOwner(customerID uuid.UUID, owner domain.PaymentOwner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[customerID] = owner
}

func (s *Store) Create(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[p.ID]; ok {
		return fmt.Errorf("Create: payment %s already exists", p.ID)
	}
	stored := *p
	stored.Owner = nil
	s.payments[p.ID] = stored
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	return s.withOwner(p), nil
}

func (s *Store) List(_ context.Context) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, *s.withOwner(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (s *Store) Transition(_ context.Context, id uuid.UUID, from domain.PaymentStatus, change domain.StatusChange) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("Transition: %w", domain.ErrNotFound)
	}
	if p.Status != from {
		return nil, fmt.Errorf("Transition: %s -> %s, stored %s: %w", from, change.Status, p.Status, domain.ErrStatusConflict)
	}

	p.Status = change.Status
	if change.VerifiedBy != nil {
		v := *change.VerifiedBy
		p.VerifiedBy = &v
	}
	if change.SubmittedAt != nil {
		t := *change.SubmittedAt
		p.SubmittedAt = &t
	}
	p.UpdatedAt = change.UpdatedAt
	s.payments[id] = p

	return s.withOwner(p), nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	delete(s.payments, id)
	return s.withOwner(p), nil
}

// withOwner returns a copy safe to hand out; callers never alias stored state.
func (s *Store) withOwner(p domain.Payment) *domain.Payment {
	if p.VerifiedBy != nil {
		v := *p.VerifiedBy
		p.VerifiedBy = &v
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		p.SubmittedAt = &t
	}
	if owner, ok := s.owners[p.CustomerID]; ok {
		p.Owner = &owner
	}
	return &p
}
