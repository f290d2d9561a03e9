package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

const orderNumberPrefix = "ORD"

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindMany(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
	ApplyUpdate(ctx context.Context, id string, expected domain.OrderStatus, update domain.OrderUpdate) (*domain.Order, error)
	Stats(ctx context.Context, customerID string) (*domain.OrderStats, error)
}

type OrderService struct {
	repo      OrderRepository
	logger    *zap.Logger
	now       func() time.Time
	reference func(prefix string, now time.Time) string
}

func NewOrderService(repo OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		logger:    logger,
		now:       time.Now,
		reference: domain.NewReference,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, in domain.NewOrder) (*domain.Order, error) {
	now := s.now().UTC()
	totals := domain.CalculateTotals(in.Items)

	order := &domain.Order{
		OrderNumber:     s.reference(orderNumberPrefix, now),
		CustomerID:      in.CustomerID,
		Items:           in.Items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		s.logger.Error("failed to create order", zap.String("customerId", in.CustomerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("orderId", created.ID),
		zap.String("orderNumber", created.OrderNumber),
		zap.String("customerId", created.CustomerID),
		zap.Float64("total", created.Total),
	)

	return created, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.Page[domain.Order], error) {
	orders, total, err := s.repo.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	return domain.NewPage(orders, total, filter.ListOptions), nil
}

// UpdateOrder applies changes to the order. A requested status must be
// reachable from the current one; the write only lands if the status has not
// moved since it was read.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, changes domain.OrderChanges) (*domain.Order, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Status != nil {
		if err := domain.ValidateOrderTransition(current.Status, *changes.Status); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.ApplyUpdate(ctx, id, current.Status, domain.OrderUpdate{
		Status:          changes.Status,
		Notes:           changes.Notes,
		ShippingAddress: changes.ShippingAddress,
		UpdatedAt:       s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("order update rejected", zap.String("orderId", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order updated",
		zap.String("orderId", updated.ID),
		zap.String("orderNumber", updated.OrderNumber),
		zap.String("status", string(updated.Status)),
	)

	return updated, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, id, reason string) (*domain.Order, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := current.ValidateCancel(); err != nil {
		return nil, err
	}

	status := domain.OrderStatusCancelled
	notes := domain.AppendCancellationReason(current.Notes, reason)

	updated, err := s.repo.ApplyUpdate(ctx, id, current.Status, domain.OrderUpdate{
		Status:    &status,
		Notes:     &notes,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("order cancellation rejected", zap.String("orderId", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("orderId", updated.ID),
		zap.String("orderNumber", updated.OrderNumber),
		zap.String("reason", reason),
	)

	return updated, nil
}

func (s *OrderService) GetOrderStats(ctx context.Context, customerID string) (*domain.OrderStats, error) {
	return s.repo.Stats(ctx, customerID)
}
