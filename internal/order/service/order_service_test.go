package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type mockOrderRepository struct {
	CreateFunc      func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByIDFunc    func(ctx context.Context, id string) (*domain.Order, error)
	FindManyFunc    func(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
	ApplyUpdateFunc func(ctx context.Context, id string, expected domain.OrderStatus, update domain.OrderUpdate) (*domain.Order, error)
	StatsFunc       func(ctx context.Context, customerID string) (*domain.OrderStats, error)
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.CreateFunc(ctx, order)
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockOrderRepository) FindMany(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	return m.FindManyFunc(ctx, filter)
}

func (m *mockOrderRepository) ApplyUpdate(ctx context.Context, id string, expected domain.OrderStatus, update domain.OrderUpdate) (*domain.Order, error) {
	return m.ApplyUpdateFunc(ctx, id, expected, update)
}

func (m *mockOrderRepository) Stats(ctx context.Context, customerID string) (*domain.OrderStats, error) {
	return m.StatsFunc(ctx, customerID)
}

func newTestOrderService(repo OrderRepository) *OrderService {
	svc := NewOrderService(repo, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	svc.reference = func(prefix string, _ time.Time) string { return prefix + "-TEST-000001" }
	return svc
}

// applyInMemory mimics the conditional write of the repository.
func applyInMemory(order *domain.Order) func(context.Context, string, domain.OrderStatus, domain.OrderUpdate) (*domain.Order, error) {
	return func(_ context.Context, _ string, expected domain.OrderStatus, u domain.OrderUpdate) (*domain.Order, error) {
		if order.Status != expected {
			return nil, apperrors.NewConflictError("Order was modified concurrently, please retry")
		}
		if u.Status != nil {
			order.Status = *u.Status
		}
		if u.Notes != nil {
			order.Notes = *u.Notes
		}
		if u.ShippingAddress != nil {
			order.ShippingAddress = *u.ShippingAddress
		}
		order.UpdatedAt = u.UpdatedAt
		return order, nil
	}
}

func TestCreateOrder_ComputesTotalsAndNumber(t *testing.T) {
	var stored *domain.Order
	repo := &mockOrderRepository{
		CreateFunc: func(_ context.Context, order *domain.Order) (*domain.Order, error) {
			stored = order
			order.ID = "665f1c2e9b1d4a0012345678"
			return order, nil
		},
	}

	svc := newTestOrderService(repo)

	order, err := svc.CreateOrder(context.Background(), domain.NewOrder{
		CustomerID: "cust-1",
		Items:      []domain.OrderItem{{ProductID: "p-1", Name: "Lamp", Price: 60, Quantity: 2, Total: 120}},
		Notes:      "ring twice",
	})

	require.NoError(t, err)
	assert.Equal(t, "ORD-TEST-000001", order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
	assert.Equal(t, 120.0, order.Subtotal)
	assert.Equal(t, 12.0, order.Tax)
	assert.Equal(t, 0.0, order.Shipping)
	assert.Equal(t, 132.0, order.Total)
	assert.Equal(t, fixedNow, order.CreatedAt)
	assert.Equal(t, fixedNow, order.UpdatedAt)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDFunc: func(context.Context, string) (*domain.Order, error) {
			return nil, apperrors.NewNotFoundError("Order not found")
		},
	}

	_, err := newTestOrderService(repo).GetOrder(context.Background(), "missing")

	if _, ok := apperrors.IsNotFoundError(err); !ok {
		t.Errorf("expected NotFoundError, got %T", err)
	}
}

func TestListOrders_BuildsPage(t *testing.T) {
	repo := &mockOrderRepository{
		FindManyFunc: func(_ context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
			assert.Equal(t, "cust-1", filter.CustomerID)
			return []domain.Order{{ID: "a"}, {ID: "b"}}, 21, nil
		},
	}

	opts := domain.DefaultListOptions()
	page, err := newTestOrderService(repo).ListOrders(context.Background(), domain.OrderFilter{ListOptions: opts, CustomerID: "cust-1"})

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(21), page.Total)
	assert.Equal(t, 3, page.TotalPages)
}

func TestUpdateOrder_LegalTransition(t *testing.T) {
	order := &domain.Order{ID: "o-1", Status: domain.OrderStatusPending}
	repo := &mockOrderRepository{
		FindByIDFunc: func(context.Context, string) (*domain.Order, error) {
			cp := *order
			return &cp, nil
		},
		ApplyUpdateFunc: applyInMemory(order),
	}

	confirmed := domain.OrderStatusConfirmed
	updated, err := newTestOrderService(repo).UpdateOrder(context.Background(), "o-1", domain.OrderChanges{Status: &confirmed})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, fixedNow, updated.UpdatedAt)
}

func TestUpdateOrder_IllegalTransitionNeverWrites(t *testing.T) {
	for _, from := range domain.OrderStatuses() {
		for _, to := range domain.OrderStatuses() {
			if from.CanTransitionTo(to) {
				continue
			}

			repo := &mockOrderRepository{
				FindByIDFunc: func(context.Context, string) (*domain.Order, error) {
					return &domain.Order{ID: "o-1", Status: from}, nil
				},
				ApplyUpdateFunc: func(context.Context, string, domain.OrderStatus, domain.OrderUpdate) (*domain.Order, error) {
					t.Errorf("unexpected write for %s -> %s", from, to)
					return nil, nil
				},
			}

			target := to
			_, err := newTestOrderService(repo).UpdateOrder(context.Background(), "o-1", domain.OrderChanges{Status: &target})

			be, ok := apperrors.IsBadRequestError(err)
			require.True(t, ok, "%s -> %s", from, to)
			assert.Equal(t, "Invalid status transition from "+string(from)+" to "+string(to), be.Message)
		}
	}
}

func TestUpdateOrder_NotesOnlyKeepsStatus(t *testing.T) {
	order := &domain.Order{ID: "o-1", Status: domain.OrderStatusShipped}
	repo := &mockOrderRepository{
		FindByIDFunc: func(context.Context, string) (*domain.Order, error) {
			cp := *order
			return &cp, nil
		},
		ApplyUpdateFunc: applyInMemory(order),
	}

	notes := "left with neighbour"
	updated, err := newTestOrderService(repo).UpdateOrder(context.Background(), "o-1", domain.OrderChanges{Notes: &notes})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Equal(t, notes, updated.Notes)
}

func TestUpdateOrder_LostRace(t *testing.T) {
	order := &domain.Order{ID: "o-1", Status: domain.OrderStatusPending}
	repo := &mockOrderRepository{
		FindByIDFunc: func(context.Context, string) (*domain.Order, error) {
			cp := *order
			// another writer lands between read and write
			order.Status = domain.OrderStatusCancelled
			return &cp, nil
		},
		ApplyUpdateFunc: applyInMemory(order),
	}

	confirmed := domain.OrderStatusConfirmed
	_, err := newTestOrderService(repo).UpdateOrder(context.Background(), "o-1", domain.OrderChanges{Status: &confirmed})

	if _, ok := apperrors.IsConflictError(err); !ok {
		t.Errorf("expected ConflictError, got %T", err)
	}
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
}

func TestCancelOrder_AppendsReason(t *testing.T) {
	order := &domain.Order{ID: "o-1", Status: domain.OrderStatusProcessing, Notes: "gift wrap"}
	repo := &mockOrderRepository{
		FindByIDFunc: func(context.Context, string) (*domain.Order, error) {
			cp := *order
			return &cp, nil
		},
		ApplyUpdateFunc: applyInMemory(order),
	}

	updated, err := newTestOrderService(repo).CancelOrder(context.Background(), "o-1", "changed mind")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	assert.Equal(t, "gift wrap\nCancellation reason: changed mind", updated.Notes)
}

func TestCancelOrder_Rejected(t *testing.T) {
	cases := map[domain.OrderStatus]string{
		domain.OrderStatusCancelled: "Order is already cancelled",
		domain.OrderStatusDelivered: "Cannot cancel delivered order",
	}

	for status, message := range cases {
		t.Run(string(status), func(t *testing.T) {
			repo := &mockOrderRepository{
				FindByIDFunc: func(context.Context, string) (*domain.Order, error) {
					return &domain.Order{ID: "o-1", Status: status}, nil
				},
			}

			_, err := newTestOrderService(repo).CancelOrder(context.Background(), "o-1", "")

			be, ok := apperrors.IsBadRequestError(err)
			require.True(t, ok)
			assert.Equal(t, message, be.Message)
		})
	}
}

func TestGetOrderStats_PassesCustomer(t *testing.T) {
	repo := &mockOrderRepository{
		StatsFunc: func(_ context.Context, customerID string) (*domain.OrderStats, error) {
			assert.Equal(t, "cust-9", customerID)
			return &domain.OrderStats{TotalOrders: 2}, nil
		},
	}

	stats, err := newTestOrderService(repo).GetOrderStats(context.Background(), "cust-9")

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
}
