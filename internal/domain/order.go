package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "storefront/internal/errors"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateOrderTransition reports an illegal move as a client error naming
// both states.
func ValidateOrderTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return apperrors.NewBadRequestError(fmt.Sprintf("Invalid status transition from %s to %s", from, to))
	}
	return nil
}

const (
	TaxRatePercent        = 10
	FlatShippingFee       = 10
	FreeShippingThreshold = 100
)

type OrderItem struct {
	ProductID string
	Name      string
	Price     float64
	Quantity  int
	Total     float64
}

// HasConsistentTotal reports whether Total equals Price times Quantity to the
// cent.
func (i OrderItem) HasConsistentTotal() bool {
	expected := decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
	return expected.Equal(decimal.NewFromFloat(i.Total).Round(2))
}

type ShippingAddress struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

type Order struct {
	ID              string
	OrderNumber     string
	CustomerID      string
	Items           []OrderItem
	Subtotal        float64
	Tax             float64
	Shipping        float64
	Total           float64
	ShippingAddress ShippingAddress
	Notes           string
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderTotals struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Total    float64
}

// CalculateTotals derives the monetary summary of an order from its line
// totals. Subtotal and tax are computed exactly; Total is the float sum of the
// stored components.
func CalculateTotals(items []OrderItem) OrderTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Total))
	}

	tax := subtotal.Mul(decimal.NewFromInt(TaxRatePercent)).Div(decimal.NewFromInt(100))

	shipping := decimal.NewFromInt(FlatShippingFee)
	if subtotal.GreaterThan(decimal.NewFromInt(FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	totals := OrderTotals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
	}
	// summed after conversion so the stored fields add up exactly
	totals.Total = totals.Subtotal + totals.Tax + totals.Shipping

	return totals
}

func (o *Order) ValidateCancel() error {
	switch o.Status {
	case OrderStatusCancelled:
		return apperrors.NewBadRequestError("Order is already cancelled")
	case OrderStatusDelivered:
		return apperrors.NewBadRequestError("Cannot cancel delivered order")
	}
	return nil
}

// AppendCancellationReason keeps existing notes and adds the reason on its own line.
func AppendCancellationReason(notes, reason string) string {
	if reason == "" {
		return notes
	}
	line := "Cancellation reason: " + reason
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

// NewOrder is the validated input for creating an order.
type NewOrder struct {
	CustomerID      string
	Items           []OrderItem
	ShippingAddress ShippingAddress
	Notes           string
}

// OrderChanges holds the optional fields of a generic order update.
type OrderChanges struct {
	Status          *OrderStatus
	Notes           *string
	ShippingAddress *ShippingAddress
}

// OrderUpdate is what the repository writes; Status is compared against
// the expected prior status before anything is applied.
type OrderUpdate struct {
	Status          *OrderStatus
	Notes           *string
	ShippingAddress *ShippingAddress
	UpdatedAt       time.Time
}

type OrderFilter struct {
	ListOptions
	Status     OrderStatus
	CustomerID string
}

type OrderStats struct {
	TotalOrders       int64
	TotalRevenue      float64
	AverageOrderValue float64
	StatusCounts      map[OrderStatus]int64
}

var OrderSortFields = []string{"createdAt", "updatedAt", "total"}
