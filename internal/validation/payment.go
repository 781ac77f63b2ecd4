package validation

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

var (
	payeeAccountRe = regexp.MustCompile(`^\d{6,20}$`)
	swiftCodeRe    = regexp.MustCompile(`^[A-Za-z0-9]{8,11}$`)
	amountRe       = regexp.MustCompile(`^\d{1,13}(\.\d{1,2})?$`)
)

// PaymentInput carries the raw, untrusted creation fields.
type PaymentInput struct {
	Amount       string
	Currency     string
	Provider     string
	PayeeAccount string
	SwiftCode    string
}

func ValidatePayment(in PaymentInput) (*domain.PaymentDraft, error) {
	v := New()

	amount, msg := parseAmount(in.Amount)
	v.Check(msg == "", "amount", msg)
	v.Check(domain.Currency(in.Currency).IsValid(), "currency", "must be one of "+joinCurrencies())
	v.Check(domain.Provider(in.Provider).IsValid(), "provider", "must be SWIFT")
	v.Matches("payeeAccount", in.PayeeAccount, payeeAccountRe, "Invalid payee account")
	v.Matches("swiftCode", in.SwiftCode, swiftCodeRe, "Invalid SWIFT code")

	if err := v.Err(); err != nil {
		return nil, err
	}

	return &domain.PaymentDraft{
		Amount:       amount,
		Currency:     domain.Currency(in.Currency),
		Provider:     domain.Provider(in.Provider),
		PayeeAccount: in.PayeeAccount,
		SwiftCode:    in.SwiftCode,
	}, nil
}

const (
	msgAmountPositive = "Amount must be > 0"
	msgAmountFormat   = "Amount must be a plain decimal with at most 2 decimal places"
)

// parseAmount accepts a plain positive decimal with at most two fraction
// digits and rejects exponents, signs and surrounding whitespace. The
// returned message is empty on success.
func parseAmount(raw string) (decimal.Decimal, string) {
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, msgAmountPositive
	}
	if !amountRe.MatchString(raw) {
		return decimal.Zero, msgAmountFormat
	}
	return d, ""
}

func joinCurrencies() string {
	names := make([]string, len(domain.SupportedCurrencies))
	for i, c := range domain.SupportedCurrencies {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
