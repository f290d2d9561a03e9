package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
	"storefront/internal/httpx"
	"storefront/internal/middleware"
	"storefront/internal/validation"
)

type mockPaymentService struct {
	CreatePaymentFunc   func(ctx context.Context, in domain.NewPayment) (*domain.Payment, error)
	ProcessPaymentFunc  func(ctx context.Context, id string) (*domain.Payment, error)
	GetPaymentFunc      func(ctx context.Context, id string) (*domain.Payment, error)
	ListPaymentsFunc    func(ctx context.Context, filter domain.PaymentFilter) (*domain.Page[domain.Payment], error)
	UpdatePaymentFunc   func(ctx context.Context, id string, changes domain.PaymentChanges) (*domain.Payment, error)
	CancelPaymentFunc   func(ctx context.Context, id, reason string) (*domain.Payment, error)
	RefundPaymentFunc   func(ctx context.Context, id string, req domain.RefundRequest) (*domain.Refund, error)
	ListRefundsFunc     func(ctx context.Context, paymentID string) ([]domain.Refund, error)
	GetPaymentStatsFunc func(ctx context.Context, customerID string) (*domain.PaymentStats, error)
}

func (m *mockPaymentService) CreatePayment(ctx context.Context, in domain.NewPayment) (*domain.Payment, error) {
	return m.CreatePaymentFunc(ctx, in)
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return m.ProcessPaymentFunc(ctx, id)
}

func (m *mockPaymentService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return m.GetPaymentFunc(ctx, id)
}

func (m *mockPaymentService) ListPayments(ctx context.Context, filter domain.PaymentFilter) (*domain.Page[domain.Payment], error) {
	return m.ListPaymentsFunc(ctx, filter)
}

func (m *mockPaymentService) UpdatePayment(ctx context.Context, id string, changes domain.PaymentChanges) (*domain.Payment, error) {
	return m.UpdatePaymentFunc(ctx, id, changes)
}

func (m *mockPaymentService) CancelPayment(ctx context.Context, id, reason string) (*domain.Payment, error) {
	return m.CancelPaymentFunc(ctx, id, reason)
}

func (m *mockPaymentService) RefundPayment(ctx context.Context, id string, req domain.RefundRequest) (*domain.Refund, error) {
	return m.RefundPaymentFunc(ctx, id, req)
}

func (m *mockPaymentService) ListRefunds(ctx context.Context, paymentID string) ([]domain.Refund, error) {
	return m.ListRefundsFunc(ctx, paymentID)
}

func (m *mockPaymentService) GetPaymentStats(ctx context.Context, customerID string) (*domain.PaymentStats, error) {
	return m.GetPaymentStatsFunc(ctx, customerID)
}

type tokenTable map[string]*auth.Claims

func (t tokenTable) VerifyToken(token string) (*auth.Claims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, apperrors.NewUnauthorizedError("Invalid token")
}

var testTokens = tokenTable{
	"owner": {UserID: "cust-1", Role: "user"},
	"other": {UserID: "cust-2", Role: "user"},
	"admin": {UserID: "admin-1", Role: "admin"},
}

func newTestRouter(svc PaymentService) http.Handler {
	responder := httpx.NewResponder(zap.NewNop(), false, true)
	a := middleware.NewAuth(testTokens, responder, zap.NewNop())
	ctrl := NewPaymentController(svc, validation.New(), responder, zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/api/payments", ctrl.Routes(a))
	return r
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Message string           `json:"message"`
	Error   *httpx.ErrorBody `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func ownedPayment(id string, status domain.PaymentStatus) *domain.Payment {
	return &domain.Payment{
		ID:         id,
		OrderID:    "order-1",
		Amount:     80,
		Currency:   "USD",
		Method:     domain.PaymentMethodCreditCard,
		Status:     status,
		CustomerID: "cust-1",
	}
}

func TestCreatePayment(t *testing.T) {
	svc := &mockPaymentService{
		CreatePaymentFunc: func(_ context.Context, in domain.NewPayment) (*domain.Payment, error) {
			assert.Equal(t, "cust-1", in.CustomerID)
			assert.Equal(t, domain.PaymentMethodStripe, in.Method)
			return ownedPayment("pay-1", domain.PaymentStatusPending), nil
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/payments", "owner",
		`{"orderId": "order-1", "amount": 80, "paymentMethod": "stripe", "customerId": "cust-2"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, "Payment created successfully", env.Message)
	assert.Contains(t, string(env.Data), `"paymentMethod":"credit_card"`)
}

func TestCreatePayment_Invalid(t *testing.T) {
	rec := do(t, newTestRouter(&mockPaymentService{}), http.MethodPost, "/api/payments", "owner",
		`{"orderId": "order-1", "amount": -1, "currency": "DOLLARS", "paymentMethod": "cash"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Len(t, env.Error.Details, 3)
}

func TestCreatePayment_Duplicate(t *testing.T) {
	svc := &mockPaymentService{
		CreatePaymentFunc: func(context.Context, domain.NewPayment) (*domain.Payment, error) {
			return nil, apperrors.NewConflictError("Payment already exists for this order")
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/payments", "owner",
		`{"orderId": "order-1", "amount": 80, "paymentMethod": "paypal"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Payment already exists for this order", decode(t, rec).Error.Message)
}

func TestProcessPayment_OwnerOnly(t *testing.T) {
	processed := 0
	svc := &mockPaymentService{
		GetPaymentFunc: func(_ context.Context, id string) (*domain.Payment, error) {
			return ownedPayment(id, domain.PaymentStatusPending), nil
		},
		ProcessPaymentFunc: func(_ context.Context, id string) (*domain.Payment, error) {
			processed++
			p := ownedPayment(id, domain.PaymentStatusCompleted)
			p.TransactionID = "TXN-1"
			return p, nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodPost, "/api/payments/pay-1/process", "other", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, processed)

	rec = do(t, h, http.MethodPost, "/api/payments/pay-1/process", "owner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Payment processed successfully", env.Message)
	assert.Contains(t, string(env.Data), `"transactionId":"TXN-1"`)
	assert.Equal(t, 1, processed)
}

func TestRefundPayment(t *testing.T) {
	svc := &mockPaymentService{
		GetPaymentFunc: func(_ context.Context, id string) (*domain.Payment, error) {
			return ownedPayment(id, domain.PaymentStatusCompleted), nil
		},
		RefundPaymentFunc: func(_ context.Context, id string, req domain.RefundRequest) (*domain.Refund, error) {
			require.NotNil(t, req.Amount)
			assert.Equal(t, 30.0, *req.Amount)
			return &domain.Refund{ID: "ref-1", PaymentID: id, Amount: *req.Amount, Reason: req.Reason, Status: domain.PaymentStatusCompleted}, nil
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/payments/pay-1/refund", "admin", `{"amount": 30, "reason": "damaged"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, "Refund processed successfully", env.Message)
	assert.Contains(t, string(env.Data), `"paymentId":"pay-1"`)
}

func TestRefundPayment_ReasonRequired(t *testing.T) {
	svc := &mockPaymentService{}

	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/payments/pay-1/refund", "owner", `{"amount": 30}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "reason", env.Error.Details[0].Field)
}

func TestRefundPayment_ExceedsAmount(t *testing.T) {
	svc := &mockPaymentService{
		GetPaymentFunc: func(_ context.Context, id string) (*domain.Payment, error) {
			return ownedPayment(id, domain.PaymentStatusCompleted), nil
		},
		RefundPaymentFunc: func(context.Context, string, domain.RefundRequest) (*domain.Refund, error) {
			return nil, apperrors.NewBadRequestError("Refund amount cannot exceed payment amount")
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/payments/pay-1/refund", "owner", `{"amount": 500, "reason": "x"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Refund amount cannot exceed payment amount", decode(t, rec).Error.Message)
}

func TestListPayments_Filters(t *testing.T) {
	var seen domain.PaymentFilter
	svc := &mockPaymentService{
		ListPaymentsFunc: func(_ context.Context, filter domain.PaymentFilter) (*domain.Page[domain.Payment], error) {
			seen = filter
			return domain.NewPage[domain.Payment](nil, 0, filter.ListOptions), nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodGet, "/api/payments?status=completed&paymentMethod=paypal&orderId=order-7&customerId=cust-2", "owner", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.PaymentStatusCompleted, seen.Status)
	assert.Equal(t, domain.PaymentMethodPayPal, seen.Method)
	assert.Equal(t, "order-7", seen.OrderID)
	assert.Equal(t, "cust-1", seen.CustomerID)
	assert.Equal(t, "[]", string(decode(t, rec).Data))

	do(t, h, http.MethodGet, "/api/payments?customerId=cust-2", "admin", "")
	assert.Equal(t, "cust-2", seen.CustomerID)

	rec = do(t, h, http.MethodGet, "/api/payments?paymentMethod=cash", "owner", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRefunds(t *testing.T) {
	svc := &mockPaymentService{
		GetPaymentFunc: func(_ context.Context, id string) (*domain.Payment, error) {
			return ownedPayment(id, domain.PaymentStatusRefunded), nil
		},
		ListRefundsFunc: func(_ context.Context, paymentID string) ([]domain.Refund, error) {
			return []domain.Refund{
				{ID: "ref-1", PaymentID: paymentID, Status: domain.PaymentStatusFailed, FailureReason: "Refund processing failed"},
				{ID: "ref-2", PaymentID: paymentID, Status: domain.PaymentStatusCompleted},
			}, nil
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/payments/pay-1/refunds", "owner", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var refunds []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &refunds))
	assert.Len(t, refunds, 2)
}

func TestCancelAndUpdatePayment(t *testing.T) {
	svc := &mockPaymentService{
		GetPaymentFunc: func(_ context.Context, id string) (*domain.Payment, error) {
			return ownedPayment(id, domain.PaymentStatusPending), nil
		},
		CancelPaymentFunc: func(_ context.Context, id, reason string) (*domain.Payment, error) {
			p := ownedPayment(id, domain.PaymentStatusCancelled)
			p.FailureReason = reason
			return p, nil
		},
		UpdatePaymentFunc: func(_ context.Context, id string, changes domain.PaymentChanges) (*domain.Payment, error) {
			p := ownedPayment(id, domain.PaymentStatusPending)
			p.Description = *changes.Description
			return p, nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodPatch, "/api/payments/pay-1/cancel", "owner", `{"reason": "duplicate"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Payment cancelled successfully", env.Message)
	assert.Contains(t, string(env.Data), `"failureReason":"duplicate"`)

	rec = do(t, h, http.MethodPut, "/api/payments/pay-1", "owner", `{"description": "gift"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Payment updated successfully", decode(t, rec).Message)
}

func TestGetPaymentStats(t *testing.T) {
	var seen string
	svc := &mockPaymentService{
		GetPaymentStatsFunc: func(_ context.Context, customerID string) (*domain.PaymentStats, error) {
			seen = customerID
			return &domain.PaymentStats{}, nil
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/payments/stats", "owner", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cust-1", seen)
	assert.Contains(t, string(decode(t, rec).Data), `"stripe":0`)
}
