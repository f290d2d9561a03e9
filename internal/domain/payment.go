package domain

import (
	"fmt"
	"time"

	apperrors "storefront/internal/errors"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusProcessing,
		PaymentStatusCompleted,
		PaymentStatusFailed,
		PaymentStatusCancelled,
		PaymentStatusRefunded,
	}
}

func (s PaymentStatus) IsValid() bool {
	for _, known := range PaymentStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodStripe       PaymentMethod = "stripe"
)

func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCreditCard,
		PaymentMethodDebitCard,
		PaymentMethodBankTransfer,
		PaymentMethodPayPal,
		PaymentMethodStripe,
	}
}

func (m PaymentMethod) IsValid() bool {
	for _, known := range PaymentMethods() {
		if m == known {
			return true
		}
	}
	return false
}

const DefaultCurrency = "USD"

type Payment struct {
	ID            string
	OrderID       string
	Amount        float64
	Currency      string
	Method        PaymentMethod
	Status        PaymentStatus
	CustomerID    string
	Description   string
	TransactionID string
	FailureReason string
	Metadata      map[string]any
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BlocksNewPayment reports whether p prevents another payment for the same
// order. Failed payments are retryable.
func (p *Payment) BlocksNewPayment() bool {
	return p.Status != PaymentStatusFailed
}

func (p *Payment) ValidateProcess() error {
	if p.Status != PaymentStatusPending {
		return apperrors.NewBadRequestError(fmt.Sprintf("Payment is already %s", p.Status))
	}
	return nil
}

// ValidateCancel also rejects a payment that is mid-charge or mid-refund; the
// gateway outcome decides where it lands.
func (p *Payment) ValidateCancel() error {
	switch p.Status {
	case PaymentStatusProcessing:
		return apperrors.NewConflictError("Payment is being processed")
	case PaymentStatusCompleted:
		return apperrors.NewBadRequestError("Cannot cancel completed payment")
	case PaymentStatusCancelled:
		return apperrors.NewBadRequestError("Payment is already cancelled")
	}
	return nil
}

// RefundAmount checks that p can be refunded and resolves the amount to
// refund; a nil request means the full payment amount.
func (p *Payment) RefundAmount(requested *float64) (float64, error) {
	if p.Status != PaymentStatusCompleted {
		return 0, apperrors.NewBadRequestError("Can only refund completed payments")
	}

	amount := p.Amount
	if requested != nil {
		amount = *requested
	}

	if amount <= 0 {
		return 0, apperrors.NewBadRequestError("Refund amount must be positive")
	}
	if amount > p.Amount {
		return 0, apperrors.NewBadRequestError("Refund amount cannot exceed payment amount")
	}

	return amount, nil
}

type Refund struct {
	ID            string
	PaymentID     string
	Amount        float64
	Reason        string
	Status        PaymentStatus
	TransactionID string
	FailureReason string
	Metadata      map[string]any
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type NewPayment struct {
	OrderID     string
	Amount      float64
	Currency    string
	Method      PaymentMethod
	CustomerID  string
	Description string
	Metadata    map[string]any
}

type RefundRequest struct {
	Amount   *float64
	Reason   string
	Metadata map[string]any
}

// PaymentChanges are the fields a caller may edit outside the lifecycle
// operations.
type PaymentChanges struct {
	Description *string
	Metadata    map[string]any
}

type PaymentUpdate struct {
	Status        *PaymentStatus
	TransactionID *string
	FailureReason *string
	Description   *string
	Metadata      map[string]any
	ProcessedAt   *time.Time
	UpdatedAt     time.Time
}

type PaymentFilter struct {
	ListOptions
	Status     PaymentStatus
	Method     PaymentMethod
	CustomerID string
	OrderID    string
}

type PaymentStats struct {
	TotalPayments int64
	TotalAmount   float64
	AverageAmount float64
	StatusCounts  map[PaymentStatus]int64
	MethodCounts  map[PaymentMethod]int64
}

var PaymentSortFields = []string{"createdAt", "updatedAt", "amount"}
