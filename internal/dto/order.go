package dto

import (
	"time"

	"storefront/internal/domain"
)

type OrderItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"gt=0"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	Total     float64 `json:"total" validate:"gt=0"`
}

type AddressRequest struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

func (a AddressRequest) ToDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
	}
}

// CreateOrderRequest is the body of POST /api/orders. CustomerID is only
// honoured for admins; everyone else orders for themselves.
type CreateOrderRequest struct {
	CustomerID      string             `json:"customerId,omitempty"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
	ShippingAddress AddressRequest     `json:"shippingAddress"`
	Notes           string             `json:"notes,omitempty" validate:"max=1000"`
}

func (r CreateOrderRequest) ToDomain(customerID string) domain.NewOrder {
	items := make([]domain.OrderItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Total:     it.Total,
		}
	}

	return domain.NewOrder{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: r.ShippingAddress.ToDomain(),
		Notes:           r.Notes,
	}
}

type UpdateOrderRequest struct {
	Status          *string         `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	Notes           *string         `json:"notes,omitempty" validate:"omitempty,max=1000"`
	ShippingAddress *AddressRequest `json:"shippingAddress,omitempty" validate:"omitempty"`
}

func (r UpdateOrderRequest) ToDomain() domain.OrderChanges {
	var changes domain.OrderChanges
	if r.Status != nil {
		status := domain.OrderStatus(*r.Status)
		changes.Status = &status
	}
	changes.Notes = r.Notes
	if r.ShippingAddress != nil {
		addr := r.ShippingAddress.ToDomain()
		changes.ShippingAddress = &addr
	}
	return changes
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type OrderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

type AddressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type OrderResponse struct {
	ID              string              `json:"_id"`
	OrderNumber     string              `json:"orderNumber"`
	CustomerID      string              `json:"customerId"`
	Items           []OrderItemResponse `json:"items"`
	Status          string              `json:"status"`
	Subtotal        float64             `json:"subtotal"`
	Tax             float64             `json:"tax"`
	Shipping        float64             `json:"shipping"`
	Total           float64             `json:"total"`
	ShippingAddress AddressResponse     `json:"shippingAddress"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func NewOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse(it)
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Items:           items,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Shipping:        o.Shipping,
		Total:           o.Total,
		ShippingAddress: AddressResponse(o.ShippingAddress),
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func NewOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = NewOrderResponse(&orders[i])
	}
	return out
}

type OrderStatsResponse struct {
	TotalOrders       int64            `json:"totalOrders"`
	TotalRevenue      float64          `json:"totalRevenue"`
	AverageOrderValue float64          `json:"averageOrderValue"`
	StatusCounts      map[string]int64 `json:"statusCounts"`
}

func NewOrderStatsResponse(s *domain.OrderStats) OrderStatsResponse {
	counts := make(map[string]int64, len(domain.OrderStatuses()))
	for _, status := range domain.OrderStatuses() {
		counts[string(status)] = s.StatusCounts[status]
	}

	return OrderStatsResponse{
		TotalOrders:       s.TotalOrders,
		TotalRevenue:      s.TotalRevenue,
		AverageOrderValue: s.AverageOrderValue,
		StatusCounts:      counts,
	}
}
