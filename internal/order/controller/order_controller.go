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

type OrderService interface {
	CreateOrder(ctx context.Context, in domain.NewOrder) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.Page[domain.Order], error)
	UpdateOrder(ctx context.Context, id string, changes domain.OrderChanges) (*domain.Order, error)
	CancelOrder(ctx context.Context, id, reason string) (*domain.Order, error)
	GetOrderStats(ctx context.Context, customerID string) (*domain.OrderStats, error)
}

type OrderController struct {
	service   OrderService
	validator *validation.Validator
	responder *httpx.Responder
	logger    *zap.Logger
}

func NewOrderController(service OrderService, validator *validation.Validator, responder *httpx.Responder, logger *zap.Logger) *OrderController {
	return &OrderController{
		service:   service,
		validator: validator,
		responder: responder,
		logger:    logger,
	}
}

func (c *OrderController) Routes(a *middleware.Auth) http.Handler {
	r := chi.NewRouter()
	r.Use(a.Authenticate)

	r.Post("/", c.CreateOrder)
	r.Get("/", c.ListOrders)
	r.Get("/stats", c.GetOrderStats)
	r.Get("/{orderId}", c.GetOrder)
	r.Put("/{orderId}", c.UpdateOrder)
	r.Patch("/{orderId}/cancel", c.CancelOrder)

	return r
}

func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r)

	var req dto.CreateOrderRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	customerID := claims.OwnerFor(req.CustomerID)

	order, err := c.service.CreateOrder(r.Context(), req.ToDomain(customerID))
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusCreated, dto.NewOrderResponse(order), "Order created successfully")
}

func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := c.accessibleOrder(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewOrderResponse(order), "")
}

func (c *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r)
	q := r.URL.Query()

	opts, err := httpx.ListOptions(q, domain.OrderSortFields)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	status, err := httpx.Enum(q, "status", domain.OrderStatuses())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	filter := domain.OrderFilter{
		ListOptions: opts,
		Status:      status,
		CustomerID:  claims.CustomerScope(q.Get("customerId")),
	}

	page, err := c.service.ListOrders(r.Context(), filter)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.Page(w, dto.NewOrderResponses(page.Items), httpx.NewPagination(page))
}

func (c *OrderController) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOrderRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	order, err := c.accessibleOrder(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	updated, err := c.service.UpdateOrder(r.Context(), order.ID, req.ToDomain())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewOrderResponse(updated), "Order updated successfully")
}

func (c *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	order, err := c.accessibleOrder(r)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	cancelled, err := c.service.CancelOrder(r.Context(), order.ID, req.Reason)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewOrderResponse(cancelled), "Order cancelled successfully")
}

func (c *OrderController) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r)

	stats, err := c.service.GetOrderStats(r.Context(), claims.CustomerScope(r.URL.Query().Get("customerId")))
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewOrderStatsResponse(stats), "")
}

func (c *OrderController) accessibleOrder(r *http.Request) (*domain.Order, error) {
	claims := middleware.MustClaims(r)
	id := chi.URLParam(r, "orderId")

	order, err := c.service.GetOrder(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if !claims.CanAccess(order.CustomerID) {
		c.logger.Warn("order access denied",
			zap.String("orderId", id),
			zap.String("userId", claims.UserID),
		)
		return nil, apperrors.NewForbiddenError("Access denied")
	}

	return order, nil
}
