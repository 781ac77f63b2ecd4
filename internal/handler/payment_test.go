package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/swift-payments-portal/internal/auth"
	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
	"github.com/josh-kwaku/swift-payments-portal/internal/validation"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CanCreate(actor domain.Identity) error {
	return m.Called(actor).Error(0)
}

func (m *MockPaymentService) Create(ctx context.Context, actor domain.Identity, in validation.PaymentInput) (*domain.Payment, error) {
	args := m.Called(ctx, actor, in)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) List(ctx context.Context, actor domain.Identity) ([]domain.Payment, error) {
	args := m.Called(ctx, actor)
	p, _ := args.Get(0).([]domain.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	return m.idCall("Get", ctx, actor, id)
}

func (m *MockPaymentService) Verify(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	return m.idCall("Verify", ctx, actor, id)
}

func (m *MockPaymentService) Submit(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	return m.idCall("Submit", ctx, actor, id)
}

func (m *MockPaymentService) Delete(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	return m.idCall("Delete", ctx, actor, id)
}

func (m *MockPaymentService) idCall(method string, ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Payment, error) {
	args := m.MethodCalled(method, ctx, actor, id)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

var (
	testCustomer = domain.Identity{SubjectID: uuid.New(), Role: domain.RoleCustomer}
	testEmployee = domain.Identity{SubjectID: uuid.New(), Role: domain.RoleEmployee}
)

func samplePayment(status domain.PaymentStatus) *domain.Payment {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Payment{
		ID:           uuid.New(),
		CustomerID:   testCustomer.SubjectID,
		Amount:       decimal.RequireFromString("100.1"),
		Currency:     domain.CurrencyUSD,
		Provider:     domain.ProviderSWIFT,
		PayeeAccount: "123456789012",
		SwiftCode:    "ABCDUS33XXX",
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
		Owner:        &domain.PaymentOwner{FullName: "Jane Doe", AccountNumber: "1234567890", Username: "janedoe"},
	}
}

func newRequest(method, target, body string, id *domain.Identity) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if id != nil {
		r = r.WithContext(auth.ContextWithIdentity(r.Context(), *id))
	}
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (map[string]any, *APIError) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	if !resp.Success {
		return nil, resp.Error
	}
	var data map[string]any
	if len(resp.Data) > 0 && resp.Data[0] == '{' {
		require.NoError(t, json.Unmarshal(resp.Data, &data))
	}
	return data, nil
}

func serve(h http.HandlerFunc, pattern string, r *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func TestPaymentHandler_Create(t *testing.T) {
	svc := new(MockPaymentService)
	h := NewPaymentHandler(svc)
	created := samplePayment(domain.PaymentStatusPending)

	svc.On("CanCreate", testCustomer).Return(nil)
	svc.On("Create", mock.Anything, testCustomer, validation.PaymentInput{
		Amount:       "100.10",
		Currency:     "USD",
		Provider:     "SWIFT",
		PayeeAccount: "123456789012",
		SwiftCode:    "ABCDUS33XXX",
	}).Return(created, nil)

	body := `{"amount":100.10,"currency":"USD","provider":"SWIFT","payeeAccount":"123456789012","swiftCode":"ABCDUS33XXX"}`
	rec := serve(h.Create, "POST /api/payments", newRequest(http.MethodPost, "/api/payments", body, &testCustomer))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/staff/payments/"+created.ID.String(), rec.Header().Get("Location"))

	data, apiErr := decodeEnvelope(t, rec)
	require.Nil(t, apiErr)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "100.10", data["amount"])
	assert.Equal(t, created.CustomerID.String(), data["customerId"])
	assert.Nil(t, data["verifiedBy"])
	assert.Nil(t, data["submittedAt"])
	svc.AssertExpectations(t)
}

func TestPaymentHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		identity   *domain.Identity
		roleErr    error
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no identity",
			body:       `{}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TOKEN",
		},
		{
			name:       "malformed json",
			body:       `{"amount":`,
			identity:   &testCustomer,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "employee forbidden before body is read",
			body:       `{"amount":`,
			identity:   &testEmployee,
			roleErr:    domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:     "validation failure",
			body:     `{"amount":"-5"}`,
			identity: &testCustomer,
			svcErr: &domain.ValidationError{Fields: []domain.FieldError{
				{Field: "amount", Message: "Amount must be > 0"},
			}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "store failure hidden",
			body:       `{"amount":"1"}`,
			identity:   &testCustomer,
			svcErr:     errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPaymentService)
			if tt.identity != nil {
				svc.On("CanCreate", *tt.identity).Return(tt.roleErr)
			}
			if tt.svcErr != nil {
				svc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			rec := serve(NewPaymentHandler(svc).Create, "POST /api/payments",
				newRequest(http.MethodPost, "/api/payments", tt.body, tt.identity))

			assert.Equal(t, tt.wantStatus, rec.Code)
			_, apiErr := decodeEnvelope(t, rec)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotContains(t, apiErr.Message, "pq:")
			if tt.svcErr == nil {
				svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPaymentHandler_Create_WrongJSONTypeReachesValidator(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("CanCreate", testCustomer).Return(nil)

	rejected := mock.MatchedBy(func(in validation.PaymentInput) bool {
		_, err := validation.ValidatePayment(in)
		var verr *domain.ValidationError
		return errors.As(err, &verr) && len(verr.Fields) == 2 &&
			verr.Fields[0].Field == "amount" && verr.Fields[1].Field == "currency"
	})
	svc.On("Create", mock.Anything, testCustomer, rejected).Return(nil, &domain.ValidationError{
		Fields: []domain.FieldError{
			{Field: "amount", Message: "Amount must be > 0"},
			{Field: "currency", Message: "must be one of ZAR, USD, EUR"},
		},
	})

	body := `{"amount":true,"currency":["USD"],"provider":"SWIFT","payeeAccount":"123456789012","swiftCode":"ABCDUS33XXX"}`
	rec := serve(NewPaymentHandler(svc).Create, "POST /api/payments",
		newRequest(http.MethodPost, "/api/payments", body, &testCustomer))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, apiErr := decodeEnvelope(t, rec)
	require.NotNil(t, apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)
	svc.AssertExpectations(t)
}

func TestPaymentHandler_Create_ValidationDetails(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("CanCreate", testCustomer).Return(nil)
	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, &domain.ValidationError{
		Fields: []domain.FieldError{
			{Field: "amount", Message: "Amount must be > 0"},
			{Field: "swiftCode", Message: "Invalid SWIFT code"},
		},
	})

	rec := serve(NewPaymentHandler(svc).Create, "POST /api/payments",
		newRequest(http.MethodPost, "/api/payments", `{}`, &testCustomer))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error struct {
			Details []domain.FieldError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []domain.FieldError{
		{Field: "amount", Message: "Amount must be > 0"},
		{Field: "swiftCode", Message: "Invalid SWIFT code"},
	}, resp.Error.Details)
}

func TestPaymentHandler_List(t *testing.T) {
	svc := new(MockPaymentService)
	newer := samplePayment(domain.PaymentStatusPending)
	older := samplePayment(domain.PaymentStatusVerified)
	svc.On("List", mock.Anything, testEmployee).Return([]domain.Payment{*newer, *older}, nil)

	rec := serve(NewPaymentHandler(svc).List, "GET /api/staff/payments",
		newRequest(http.MethodGet, "/api/staff/payments", "", &testEmployee))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []paymentDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, newer.ID, resp.Data[0].ID)
	require.NotNil(t, resp.Data[0].Customer)
	assert.Equal(t, "janedoe", resp.Data[0].Customer.Username)
	assert.Equal(t, "1234567890", resp.Data[0].Customer.AccountNumber)
}

func TestPaymentHandler_Transitions(t *testing.T) {
	verifiedBy := testEmployee.SubjectID
	verified := samplePayment(domain.PaymentStatusVerified)
	verified.VerifiedBy = &verifiedBy

	tests := []struct {
		name       string
		method     string
		pattern    string
		path       string
		svcMethod  string
		handler    func(*PaymentHandler) http.HandlerFunc
		ret        *domain.Payment
		svcErr     error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "verify ok",
			method:     http.MethodPost,
			pattern:    "POST /api/staff/payments/{id}/verify",
			path:       "/api/staff/payments/%s/verify",
			svcMethod:  "Verify",
			handler:    func(h *PaymentHandler) http.HandlerFunc { return h.Verify },
			ret:        verified,
			wantStatus: http.StatusOK,
		},
		{
			name:       "verify guard",
			method:     http.MethodPost,
			pattern:    "POST /api/staff/payments/{id}/verify",
			path:       "/api/staff/payments/%s/verify",
			svcMethod:  "Verify",
			handler:    func(h *PaymentHandler) http.HandlerFunc { return h.Verify },
			svcErr:     fmt.Errorf("Verify: %w", &domain.StateGuardError{Transition: domain.TransitionVerify, Reason: "Only pending can be verified"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_STATE_TRANSITION",
			wantMsg:    "Only pending can be verified",
		},
		{
			name:       "submit guard",
			method:     http.MethodPost,
			pattern:    "POST /api/staff/payments/{id}/submit",
			path:       "/api/staff/payments/%s/submit",
			svcMethod:  "Submit",
			handler:    func(h *PaymentHandler) http.HandlerFunc { return h.Submit },
			svcErr:     &domain.StateGuardError{Transition: domain.TransitionSubmit, Reason: "Payment must be verified first"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_STATE_TRANSITION",
			wantMsg:    "Payment must be verified first",
		},
		{
			name:       "submit not found",
			method:     http.MethodPost,
			pattern:    "POST /api/staff/payments/{id}/submit",
			path:       "/api/staff/payments/%s/submit",
			svcMethod:  "Submit",
			handler:    func(h *PaymentHandler) http.HandlerFunc { return h.Submit },
			svcErr:     fmt.Errorf("Submit: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "PAYMENT_NOT_FOUND",
			wantMsg:    "Payment not found",
		},
		{
			name:       "get forbidden",
			method:     http.MethodGet,
			pattern:    "GET /api/staff/payments/{id}",
			path:       "/api/staff/payments/%s",
			svcMethod:  "Get",
			handler:    func(h *PaymentHandler) http.HandlerFunc { return h.Get },
			svcErr:     domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPaymentService)
			id := uuid.New()
			svc.On(tt.svcMethod, mock.Anything, testEmployee, id).Return(tt.ret, tt.svcErr)

			rec := serve(tt.handler(NewPaymentHandler(svc)), tt.pattern,
				newRequest(tt.method, fmt.Sprintf(tt.path, id), "", &testEmployee))

			assert.Equal(t, tt.wantStatus, rec.Code)
			data, apiErr := decodeEnvelope(t, rec)
			if tt.wantCode == "" {
				require.Nil(t, apiErr)
				assert.Equal(t, string(tt.ret.Status), data["status"])
				assert.Equal(t, verifiedBy.String(), data["verifiedBy"])
				assert.NotNil(t, data["customer"])
			} else {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, apiErr.Message)
				}
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_MalformedID(t *testing.T) {
	tests := []struct {
		name       string
		identity   domain.Identity
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "employee sees not found", identity: testEmployee, svcErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "PAYMENT_NOT_FOUND"},
		{name: "customer still forbidden", identity: testCustomer, svcErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPaymentService)
			svc.On("Verify", mock.Anything, tt.identity, uuid.Nil).Return(nil, tt.svcErr)

			rec := serve(NewPaymentHandler(svc).Verify, "POST /api/staff/payments/{id}/verify",
				newRequest(http.MethodPost, "/api/staff/payments/not-a-uuid/verify", "", &tt.identity))

			assert.Equal(t, tt.wantStatus, rec.Code)
			_, apiErr := decodeEnvelope(t, rec)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_Delete(t *testing.T) {
	svc := new(MockPaymentService)
	removed := samplePayment(domain.PaymentStatusPending)
	svc.On("Delete", mock.Anything, testEmployee, removed.ID).Return(removed, nil)

	rec := serve(NewPaymentHandler(svc).Delete, "DELETE /api/staff/payments/{id}",
		newRequest(http.MethodDelete, "/api/staff/payments/"+removed.ID.String(), "", &testEmployee))

	require.Equal(t, http.StatusOK, rec.Code)
	data, apiErr := decodeEnvelope(t, rec)
	require.Nil(t, apiErr)
	assert.Equal(t, map[string]any{
		"id":         removed.ID.String(),
		"amount":     "100.10",
		"currency":   "USD",
		"status":     "pending",
		"customerId": removed.CustomerID.String(),
	}, data)
}
