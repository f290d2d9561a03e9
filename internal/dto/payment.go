package dto

import (
	"time"

	"storefront/internal/domain"
)

type CreatePaymentRequest struct {
	OrderID       string         `json:"orderId" validate:"required"`
	Amount        float64        `json:"amount" validate:"gt=0"`
	Currency      string         `json:"currency,omitempty" validate:"omitempty,len=3"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,oneof=credit_card debit_card bank_transfer paypal stripe"`
	CustomerID    string         `json:"customerId,omitempty"`
	Description   string         `json:"description,omitempty" validate:"max=500"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (r CreatePaymentRequest) ToDomain(customerID string) domain.NewPayment {
	return domain.NewPayment{
		OrderID:     r.OrderID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Method:      domain.PaymentMethod(r.PaymentMethod),
		CustomerID:  customerID,
		Description: r.Description,
		Metadata:    r.Metadata,
	}
}

type UpdatePaymentRequest struct {
	Description *string        `json:"description,omitempty" validate:"omitempty,max=500"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (r UpdatePaymentRequest) ToDomain() domain.PaymentChanges {
	return domain.PaymentChanges{
		Description: r.Description,
		Metadata:    r.Metadata,
	}
}

type RefundPaymentRequest struct {
	Amount   *float64       `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Reason   string         `json:"reason" validate:"required,max=500"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (r RefundPaymentRequest) ToDomain() domain.RefundRequest {
	return domain.RefundRequest{
		Amount:   r.Amount,
		Reason:   r.Reason,
		Metadata: r.Metadata,
	}
}

type PaymentResponse struct {
	ID            string         `json:"_id"`
	OrderID       string         `json:"orderId"`
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	PaymentMethod string         `json:"paymentMethod"`
	Status        string         `json:"status"`
	CustomerID    string         `json:"customerId"`
	Description   string         `json:"description,omitempty"`
	TransactionID string         `json:"transactionId,omitempty"`
	FailureReason string         `json:"failureReason,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ProcessedAt   *time.Time     `json:"processedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: string(p.Method),
		Status:        string(p.Status),
		CustomerID:    p.CustomerID,
		Description:   p.Description,
		TransactionID: p.TransactionID,
		FailureReason: p.FailureReason,
		Metadata:      p.Metadata,
		ProcessedAt:   p.ProcessedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func NewPaymentResponses(payments []domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = NewPaymentResponse(&payments[i])
	}
	return out
}

type RefundResponse struct {
	ID            string         `json:"_id"`
	PaymentID     string         `json:"paymentId"`
	Amount        float64        `json:"amount"`
	Reason        string         `json:"reason"`
	Status        string         `json:"status"`
	TransactionID string         `json:"transactionId,omitempty"`
	FailureReason string         `json:"failureReason,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ProcessedAt   *time.Time     `json:"processedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func NewRefundResponse(r *domain.Refund) RefundResponse {
	return RefundResponse{
		ID:            r.ID,
		PaymentID:     r.PaymentID,
		Amount:        r.Amount,
		Reason:        r.Reason,
		Status:        string(r.Status),
		TransactionID: r.TransactionID,
		FailureReason: r.FailureReason,
		Metadata:      r.Metadata,
		ProcessedAt:   r.ProcessedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func NewRefundResponses(refunds []domain.Refund) []RefundResponse {
	out := make([]RefundResponse, len(refunds))
	for i := range refunds {
		out[i] = NewRefundResponse(&refunds[i])
	}
	return out
}

type PaymentStatsResponse struct {
	TotalPayments int64            `json:"totalPayments"`
	TotalAmount   float64          `json:"totalAmount"`
	AverageAmount float64          `json:"averageAmount"`
	StatusCounts  map[string]int64 `json:"statusCounts"`
	MethodCounts  map[string]int64 `json:"methodCounts"`
}

func NewPaymentStatsResponse(s *domain.PaymentStats) PaymentStatsResponse {
	statuses := make(map[string]int64, len(domain.PaymentStatuses()))
	for _, status := range domain.PaymentStatuses() {
		statuses[string(status)] = s.StatusCounts[status]
	}
	methods := make(map[string]int64, len(domain.PaymentMethods()))
	for _, method := range domain.PaymentMethods() {
		methods[string(method)] = s.MethodCounts[method]
	}

	return PaymentStatsResponse{
		TotalPayments: s.TotalPayments,
		TotalAmount:   s.TotalAmount,
		AverageAmount: s.AverageAmount,
		StatusCounts:  statuses,
		MethodCounts:  methods,
	}
}
