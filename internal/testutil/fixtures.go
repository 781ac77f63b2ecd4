package testutil

import (
	"database/sql"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

const TestPassword = "Str0ng!Pass"

// SeedUser inserts a user with the given role and unique generated
// identifiers. The password is always TestPassword.
func SeedUser(t *testing.T, db *sql.DB, role domain.Role, username string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &domain.User{
		ID:            uuid.New(),
		FullName:      "Test " + username,
		IDNumber:      randomDigits(13),
		AccountNumber: randomDigits(10),
		Username:      username,
		PasswordHash:  string(hash),
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = db.Exec(
		`INSERT INTO users (id, full_name, id_number, account_number, username, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.FullName, u.IDNumber, u.AccountNumber, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// NewPendingPayment builds an unsaved pending payment owned by customerID.
func NewPendingPayment(customerID uuid.UUID, amount string, createdAt time.Time) *domain.Payment {
	createdAt = createdAt.UTC().Truncate(time.Microsecond)
	return &domain.Payment{
		ID:           uuid.New(),
		CustomerID:   customerID,
		Amount:       decimal.RequireFromString(amount),
		Currency:     domain.CurrencyUSD,
		Provider:     domain.ProviderSWIFT,
		PayeeAccount: "12345678",
		SwiftCode:    "ABCDEF12",
		Status:       domain.PaymentStatusPending,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func CountPayments(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		t.Fatalf("count payments: %v", err)
	}
	return count
}

func randomDigits(n int) string {
	b := make([]byte, n)
	b[0] = byte('1' + rand.IntN(9))
	for i := 1; i < n; i++ {
		b[i] = byte('0' + rand.IntN(10))
	}
	return string(b)
}
