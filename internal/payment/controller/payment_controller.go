package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/dto"
	apperrors "storefront/internal/errors"
	"storefront/internal/httpx"
	"storefront/internal/middleware"
	"storefront/internal/validation"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, in domain.NewPayment) (*domain.Payment, error)
	ProcessPayment(ctx context.Context, id string) (*domain.Payment, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, filter domain.PaymentFilter) (*domain.Page[domain.Payment], error)
	UpdatePayment(ctx context.Context, id string, changes domain.PaymentChanges) (*domain.Payment, error)
	CancelPayment(ctx context.Context, id, reason string) (*domain.Payment, error)
	RefundPayment(ctx context.Context, id string, req domain.RefundRequest) (*domain.Refund, error)
	ListRefunds(ctx context.Context, paymentID string) ([]domain.Refund, error)
	GetPaymentStats(ctx context.Context, customerID string) (*domain.PaymentStats, error)
}

type PaymentController struct {
	service   PaymentService
	validator *validation.Validator
	responder *httpx.Responder
	logger    *zap.Logger
}

func NewPaymentController(service PaymentService, validator *validation.Validator, responder *httpx.Responder, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		service:   service,
		validator: validator,
		responder: responder,
		logger:    logger,
	}
}

func (c *PaymentController) Routes(a *middleware.Auth) http.Handler {
	r := chi.NewRouter()
	r.Use(a.Authenticate)

	r.Post("/", c.CreatePayment)
	r.Get("/", c.ListPayments)
	r.Get("/stats", c.GetPaymentStats)

	r.Get("/{paymentId}", c.GetPayment)
	r.Put("/{paymentId}", c.UpdatePayment)
	r.Patch("/{paymentId}/cancel", c.CancelPayment)
	r.Post("/{paymentId}/process", c.ProcessPayment)
	r.Post("/{paymentId}/refund", c.RefundPayment)
	r.Get("/{paymentId}/refunds", c.ListRefunds)

	return r
}

func (c *PaymentController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r)

	var req dto.CreatePaymentRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	customerID := claims.OwnerFor(req.CustomerID)

	payment, err := c.service.CreatePayment(r.Context(), req.ToDomain(customerID))
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusCreated, dto.NewPaymentResponse(payment), "Payment created successfully")
}

func (c *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := c.accessiblePayment(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewPaymentResponse(payment), "")
}

func (c *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r)
	q := r.URL.Query()

	opts, err := httpx.ListOptions(q, domain.PaymentSortFields)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	status, err := httpx.Enum(q, "status", domain.PaymentStatuses())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	method, err := httpx.Enum(q, "paymentMethod", domain.PaymentMethods())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	customerID := claims.CustomerScope(q.Get("customerId"))

	page, err := c.service.ListPayments(r.Context(), domain.PaymentFilter{
		ListOptions: opts,
		Status:      status,
		Method:      method,
		CustomerID:  customerID,
		OrderID:     q.Get("orderId"),
	})
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.Page(w, dto.NewPaymentResponses(page.Items), httpx.NewPagination(page))
}

func (c *PaymentController) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePaymentRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	payment, err := c.accessiblePayment(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	updated, err := c.service.UpdatePayment(r.Context(), payment.ID, req.ToDomain())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewPaymentResponse(updated), "Payment updated successfully")
}

func (c *PaymentController) CancelPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	payment, err := c.accessiblePayment(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	cancelled, err := c.service.CancelPayment(r.Context(), payment.ID, req.Reason)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewPaymentResponse(cancelled), "Payment cancelled successfully")
}

func (c *PaymentController) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := c.accessiblePayment(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	processed, err := c.service.ProcessPayment(r.Context(), payment.ID)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewPaymentResponse(processed), "Payment processed successfully")
}

func (c *PaymentController) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundPaymentRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	payment, err := c.accessiblePayment(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	refund, err := c.service.RefundPayment(r.Context(), payment.ID, req.ToDomain())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewRefundResponse(refund), "Refund processed successfully")
}

func (c *PaymentController) ListRefunds(w http.ResponseWriter, r *http.Request) {
	payment, err := c.accessiblePayment(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	refunds, err := c.service.ListRefunds(r.Context(), payment.ID)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewRefundResponses(refunds), "")
}

func (c *PaymentController) GetPaymentStats(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r)

	customerID := claims.CustomerScope(r.URL.Query().Get("customerId"))

	stats, err := c.service.GetPaymentStats(r.Context(), customerID)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewPaymentStatsResponse(stats), "")
}

func (c *PaymentController) accessiblePayment(r *http.Request) (*domain.Payment, error) {
	claims := middleware.MustClaims(r)
	id := chi.URLParam(r, "paymentId")

	payment, err := c.service.GetPayment(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if !claims.CanAccess(payment.CustomerID) {
		c.logger.Warn("payment access denied",
			zap.String("paymentId", id),
			zap.String("userId", claims.UserID),
		)
		return nil, apperrors.NewForbiddenError("Access denied")
	}

	return payment, nil
}
