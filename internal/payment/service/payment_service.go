package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
	"storefront/internal/payment/gateway"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindActiveByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	FindMany(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, int64, error)
	Transition(ctx context.Context, id string, expected domain.PaymentStatus, update domain.PaymentUpdate) (*domain.Payment, error)
	CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	FindRefundsByPaymentID(ctx context.Context, paymentID string) ([]domain.Refund, error)
	Stats(ctx context.Context, customerID string) (*domain.PaymentStats, error)
}

type PaymentService struct {
	repo    PaymentRepository
	gateway gateway.Gateway
	logger  *zap.Logger
	now     func() time.Time
}

func NewPaymentService(repo PaymentRepository, gw gateway.Gateway, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:    repo,
		gateway: gw,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *PaymentService) CreatePayment(ctx context.Context, in domain.NewPayment) (*domain.Payment, error) {
	existing, err := s.repo.FindActiveByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.BlocksNewPayment() {
		s.logger.Warn("payment already exists for order",
			zap.String("orderId", in.OrderID),
			zap.String("paymentId", existing.ID),
			zap.String("status", string(existing.Status)),
		)
		return nil, apperrors.NewConflictError("Payment already exists for this order")
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.Payment{
		OrderID:     in.OrderID,
		Amount:      in.Amount,
		Currency:    currency,
		Method:      in.Method,
		Status:      domain.PaymentStatusPending,
		CustomerID:  in.CustomerID,
		Description: in.Description,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.logger.Error("failed to create payment",
			zap.String("orderId", in.OrderID),
			zap.String("customerId", in.CustomerID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("payment created",
		zap.String("paymentId", created.ID),
		zap.String("orderId", created.OrderID),
		zap.Float64("amount", created.Amount),
		zap.String("customerId", created.CustomerID),
	)

	return created, nil
}

// ProcessPayment charges a pending payment. The payment is claimed by moving
// it to processing before the gateway is called, so a concurrent call for the
// same payment gets a ConflictError instead of charging twice.
func (s *PaymentService) ProcessPayment(ctx context.Context, id string) (*domain.Payment, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := current.ValidateProcess(); err != nil {
		return nil, err
	}

	processing := domain.PaymentStatusProcessing
	claimed, err := s.repo.Transition(ctx, id, domain.PaymentStatusPending, domain.PaymentUpdate{
		Status:    &processing,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Charge(ctx, *claimed)
	// the claim must be settled even when the caller has gone away
	settleCtx := context.WithoutCancel(ctx)
	if err != nil {
		s.release(settleCtx, id, domain.PaymentStatusPending)
		s.logger.Error("payment gateway unavailable", zap.String("paymentId", id), zap.Error(err))
		return nil, apperrors.NewInternalError("payment gateway unavailable", err)
	}

	now := s.now().UTC()
	update := domain.PaymentUpdate{ProcessedAt: &now, UpdatedAt: now}
	if result.Success {
		status := domain.PaymentStatusCompleted
		update.Status = &status
		update.TransactionID = &result.TransactionID
	} else {
		status := domain.PaymentStatusFailed
		reason := result.FailureReason
		if reason == "" {
			reason = gateway.ChargeDeclinedReason
		}
		update.Status = &status
		update.FailureReason = &reason
	}

	processed, err := s.repo.Transition(settleCtx, id, domain.PaymentStatusProcessing, update)
	if err != nil {
		s.logger.Error("failed to record payment outcome", zap.String("paymentId", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("payment processed",
		zap.String("paymentId", processed.ID),
		zap.String("orderId", processed.OrderID),
		zap.String("status", string(processed.Status)),
		zap.String("transactionId", processed.TransactionID),
	)

	return processed, nil
}

// release moves a claimed payment back out of processing after the gateway
// could not be asked.
func (s *PaymentService) release(ctx context.Context, id string, to domain.PaymentStatus) {
	_, err := s.repo.Transition(ctx, id, domain.PaymentStatusProcessing, domain.PaymentUpdate{
		Status:    &to,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to release payment claim",
			zap.String("paymentId", id),
			zap.String("status", string(to)),
			zap.Error(err),
		)
	}
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PaymentService) ListPayments(ctx context.Context, filter domain.PaymentFilter) (*domain.Page[domain.Payment], error) {
	payments, total, err := s.repo.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	return domain.NewPage(payments, total, filter.ListOptions), nil
}

// UpdatePayment edits description and metadata only.
func (s *PaymentService) UpdatePayment(ctx context.Context, id string, changes domain.PaymentChanges) (*domain.Payment, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Transition(ctx, id, current.Status, domain.PaymentUpdate{
		Description: changes.Description,
		Metadata:    changes.Metadata,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment updated",
		zap.String("paymentId", updated.ID),
		zap.String("orderId", updated.OrderID),
		zap.String("status", string(updated.Status)),
	)

	return updated, nil
}

func (s *PaymentService) CancelPayment(ctx context.Context, id, reason string) (*domain.Payment, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := current.ValidateCancel(); err != nil {
		return nil, err
	}

	status := domain.PaymentStatusCancelled
	update := domain.PaymentUpdate{Status: &status, UpdatedAt: s.now().UTC()}
	if reason != "" {
		update.FailureReason = &reason
	}

	cancelled, err := s.repo.Transition(ctx, id, current.Status, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment cancelled",
		zap.String("paymentId", cancelled.ID),
		zap.String("orderId", cancelled.OrderID),
		zap.String("reason", reason),
	)

	return cancelled, nil
}

// RefundPayment refunds all or part of a completed payment. A refund record
// is written whatever the gateway answers; only an approved refund moves the
// payment to refunded.
func (s *PaymentService) RefundPayment(ctx context.Context, id string, req domain.RefundRequest) (*domain.Refund, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	amount, err := current.RefundAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	processing := domain.PaymentStatusProcessing
	claimed, err := s.repo.Transition(ctx, id, domain.PaymentStatusCompleted, domain.PaymentUpdate{
		Status:    &processing,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Refund(ctx, *claimed, amount)
	settleCtx := context.WithoutCancel(ctx)
	if err != nil {
		s.release(settleCtx, id, domain.PaymentStatusCompleted)
		s.logger.Error("refund gateway unavailable", zap.String("paymentId", id), zap.Error(err))
		return nil, apperrors.NewInternalError("payment gateway unavailable", err)
	}

	now := s.now().UTC()
	refund := &domain.Refund{
		PaymentID: id,
		Amount:    amount,
		Reason:    req.Reason,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if result.Success {
		refund.Status = domain.PaymentStatusCompleted
		refund.TransactionID = result.TransactionID
		refund.ProcessedAt = &now
	} else {
		refund.Status = domain.PaymentStatusFailed
		refund.FailureReason = result.FailureReason
		if refund.FailureReason == "" {
			refund.FailureReason = gateway.RefundDeclinedReason
		}
	}

	created, err := s.repo.CreateRefund(settleCtx, refund)
	if err != nil {
		s.release(settleCtx, id, domain.PaymentStatusCompleted)
		s.logger.Error("failed to record refund",
			zap.String("paymentId", id),
			zap.Bool("approved", result.Success),
			zap.String("transactionId", result.TransactionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("recording refund for payment %s: %w", id, err)
	}

	if result.Success {
		refunded := domain.PaymentStatusRefunded
		if _, err := s.repo.Transition(settleCtx, id, domain.PaymentStatusProcessing, domain.PaymentUpdate{
			Status:    &refunded,
			UpdatedAt: now,
		}); err != nil {
			s.logger.Error("failed to mark payment refunded", zap.String("paymentId", id), zap.Error(err))
			return nil, err
		}
	} else {
		s.release(settleCtx, id, domain.PaymentStatusCompleted)
	}

	s.logger.Info("refund processed",
		zap.String("refundId", created.ID),
		zap.String("paymentId", id),
		zap.Float64("amount", amount),
		zap.String("status", string(created.Status)),
	)

	return created, nil
}

func (s *PaymentService) ListRefunds(ctx context.Context, paymentID string) ([]domain.Refund, error) {
	return s.repo.FindRefundsByPaymentID(ctx, paymentID)
}

func (s *PaymentService) GetPaymentStats(ctx context.Context, customerID string) (*domain.PaymentStats, error) {
	return s.repo.Stats(ctx, customerID)
}
