package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyZAR Currency = "ZAR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

var SupportedCurrencies = []Currency{CurrencyZAR, CurrencyUSD, CurrencyEUR}

func (c Currency) IsValid() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

type Provider string

const ProviderSWIFT Provider = "SWIFT"

var SupportedProviders = []Provider{ProviderSWIFT}

func (p Provider) IsValid() bool {
	for _, s := range SupportedProviders {
		if p == s {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusVerified  PaymentStatus = "verified"
	PaymentStatusSubmitted PaymentStatus = "submitted"
)

// PaymentOwner holds the owning customer's fields that staff views need.
// Populated by store reads, nil on freshly created payments.
type PaymentOwner struct {
	FullName      string
	AccountNumber string
	Username      string
}

type Payment struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	Amount       decimal.Decimal
	Currency     Currency
	Provider     Provider
	PayeeAccount string
	SwiftCode    string
	Status       PaymentStatus
	VerifiedBy   *uuid.UUID
	SubmittedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Owner        *PaymentOwner
}

// PaymentDraft is a validated, normalized payment-creation request.
type PaymentDraft struct {
	Amount       decimal.Decimal
	Currency     Currency
	Provider     Provider
	PayeeAccount string
	SwiftCode    string
}

// StatusChange is applied by a store only while the stored status still
// matches the expected one.
type StatusChange struct {
	Status      PaymentStatus
	VerifiedBy  *uuid.UUID
	SubmittedAt *time.Time
	UpdatedAt   time.Time
}
