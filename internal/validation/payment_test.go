package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

func validPaymentInput() PaymentInput {
	return PaymentInput{
		Amount:       "100.00",
		Currency:     "USD",
		Provider:     "SWIFT",
		PayeeAccount: "123456789012",
		SwiftCode:    "ABCDUS33XXX",
	}
}

func TestValidatePayment(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(in *PaymentInput)
		wantFields []string
	}{
		{name: "valid", mutate: func(*PaymentInput) {}},
		{name: "integer amount", mutate: func(in *PaymentInput) { in.Amount = "250" }},
		{name: "eight character swift code", mutate: func(in *PaymentInput) { in.SwiftCode = "abcdza22" }},
		{name: "ZAR", mutate: func(in *PaymentInput) { in.Currency = "ZAR" }},
		{name: "negative amount", mutate: func(in *PaymentInput) { in.Amount = "-5" }, wantFields: []string{"amount"}},
		{name: "zero amount", mutate: func(in *PaymentInput) { in.Amount = "0.00" }, wantFields: []string{"amount"}},
		{name: "non-numeric amount", mutate: func(in *PaymentInput) { in.Amount = "ten" }, wantFields: []string{"amount"}},
		{name: "three decimal places", mutate: func(in *PaymentInput) { in.Amount = "1.005" }, wantFields: []string{"amount"}},
		{name: "exponent amount", mutate: func(in *PaymentInput) { in.Amount = "1e3" }, wantFields: []string{"amount"}},
		{name: "amount with whitespace", mutate: func(in *PaymentInput) { in.Amount = " 10" }, wantFields: []string{"amount"}},
		{name: "empty amount", mutate: func(in *PaymentInput) { in.Amount = "" }, wantFields: []string{"amount"}},
		{name: "currency not whitelisted", mutate: func(in *PaymentInput) { in.Currency = "GBP" }, wantFields: []string{"currency"}},
		{name: "currency lowercase", mutate: func(in *PaymentInput) { in.Currency = "usd" }, wantFields: []string{"currency"}},
		{name: "provider not whitelisted", mutate: func(in *PaymentInput) { in.Provider = "SEPA" }, wantFields: []string{"provider"}},
		{name: "provider lowercase", mutate: func(in *PaymentInput) { in.Provider = "swift" }, wantFields: []string{"provider"}},
		{name: "payee account too short", mutate: func(in *PaymentInput) { in.PayeeAccount = "12345" }, wantFields: []string{"payeeAccount"}},
		{name: "payee account too long", mutate: func(in *PaymentInput) { in.PayeeAccount = "123456789012345678901" }, wantFields: []string{"payeeAccount"}},
		{name: "payee account trailing newline", mutate: func(in *PaymentInput) { in.PayeeAccount = "123456\n" }, wantFields: []string{"payeeAccount"}},
		{name: "swift code too short", mutate: func(in *PaymentInput) { in.SwiftCode = "AB" }, wantFields: []string{"swiftCode"}},
		{name: "swift code with symbols", mutate: func(in *PaymentInput) { in.SwiftCode = "ABCD-US33" }, wantFields: []string{"swiftCode"}},
		{
			name: "all fields invalid are reported together",
			mutate: func(in *PaymentInput) {
				*in = PaymentInput{Amount: "-1", Currency: "GBP", Provider: "", PayeeAccount: "x", SwiftCode: "AB"}
			},
			wantFields: []string{"amount", "currency", "provider", "payeeAccount", "swiftCode"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validPaymentInput()
			tc.mutate(&in)

			draft, err := ValidatePayment(in)

			if len(tc.wantFields) == 0 {
				require.NoError(t, err)
				require.NotNil(t, draft)
				return
			}

			require.Nil(t, draft)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)

			got := make([]string, len(verr.Fields))
			for i, f := range verr.Fields {
				got[i] = f.Field
			}
			assert.Equal(t, tc.wantFields, got)
		})
	}
}

func TestValidatePayment_Normalizes(t *testing.T) {
	draft, err := ValidatePayment(validPaymentInput())
	require.NoError(t, err)

	assert.True(t, draft.Amount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, domain.CurrencyUSD, draft.Currency)
	assert.Equal(t, domain.ProviderSWIFT, draft.Provider)
	assert.Equal(t, "123456789012", draft.PayeeAccount)
	assert.Equal(t, "ABCDUS33XXX", draft.SwiftCode)
}

func TestValidatePayment_AmountMessages(t *testing.T) {
	tests := []struct {
		amount  string
		wantMsg string
	}{
		{amount: "-5", wantMsg: "Amount must be > 0"},
		{amount: "0", wantMsg: "Amount must be > 0"},
		{amount: "ten", wantMsg: "Amount must be > 0"},
		{amount: "1e2", wantMsg: "Amount must be a plain decimal with at most 2 decimal places"},
		{amount: "1.005", wantMsg: "Amount must be a plain decimal with at most 2 decimal places"},
		{amount: "12345678901234", wantMsg: "Amount must be a plain decimal with at most 2 decimal places"},
	}

	for _, tc := range tests {
		t.Run(tc.amount, func(t *testing.T) {
			in := validPaymentInput()
			in.Amount = tc.amount

			_, err := ValidatePayment(in)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, "amount", verr.Fields[0].Field)
			assert.Equal(t, tc.wantMsg, verr.Fields[0].Message)
		})
	}
}
