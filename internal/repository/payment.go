package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

const paymentSelect = `SELECT p.id, p.customer_id, p.amount, p.currency, p.provider,
	p.payee_account, p.swift_code, p.status, p.verified_by, p.submitted_at,
	p.created_at, p.updated_at, u.full_name, u.account_number, u.username
	FROM payments p JOIN users u ON u.id = p.customer_id`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (
			id, customer_id, amount, currency, provider, payee_account, swift_code,
			status, verified_by, submitted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.CustomerID, p.Amount.StringFixed(2), p.Currency, p.Provider, p.PayeeAccount, p.SwiftCode,
		p.Status, p.VerifiedBy, p.SubmittedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, err := getPayment(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, paymentSelect+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return payments, nil
}

// Transition applies change only if the stored status is still from. The
// status guard is part of the UPDATE itself, so concurrent callers racing on
// the same row cannot both succeed.
func (r *PaymentRepository) Transition(ctx context.Context, id uuid.UUID, from domain.PaymentStatus, change domain.StatusChange) (*domain.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Transition: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $1,
			verified_by = COALESCE($2, verified_by),
			submitted_at = COALESCE($3, submitted_at),
			updated_at = $4
		WHERE id = $5 AND status = $6`,
		change.Status, change.VerifiedBy, change.SubmittedAt, change.UpdatedAt, id, from,
	)
	if err != nil {
		return nil, fmt.Errorf("Transition: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("Transition: rows affected: %w", err)
	}
	if rows == 0 {
		var current domain.PaymentStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM payments WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Transition: %w", domain.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("Transition: current status: %w", err)
		}
		return nil, fmt.Errorf("Transition: %s -> %s, stored %s: %w", from, change.Status, current, domain.ErrStatusConflict)
	}

	p, err := getPayment(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Transition: reload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Transition: commit: %w", err)
	}
	return p, nil
}

// Delete removes the payment permanently and returns it as it was.
func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Delete: begin tx: %w", err)
	}
	defer tx.Rollback()

	p, err := getPayment(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Delete: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Delete: commit: %w", err)
	}
	return p, nil
}

func getPayment(ctx context.Context, q querier, id uuid.UUID) (*domain.Payment, error) {
	p, err := scanPayment(q.QueryRowContext(ctx, paymentSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	var owner domain.PaymentOwner
	var verifiedBy uuid.NullUUID
	var submittedAt sql.NullTime

	err := s.Scan(
		&p.ID, &p.CustomerID, &p.Amount, &p.Currency, &p.Provider,
		&p.PayeeAccount, &p.SwiftCode, &p.Status, &verifiedBy, &submittedAt,
		&p.CreatedAt, &p.UpdatedAt, &owner.FullName, &owner.AccountNumber, &owner.Username,
	)
	if err != nil {
		return nil, err
	}

	if verifiedBy.Valid {
		p.VerifiedBy = &verifiedBy.UUID
	}
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		p.SubmittedAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Owner = &owner

	return &p, nil
}
