package gateway

import (
	"context"
	"math/rand/v2"
	"time"

	"storefront/internal/domain"
)

// Result is the outcome the gateway reports for a charge or refund. A
// declined operation is a Result with Success false, not an error; errors
// mean the gateway could not be reached.
type Result struct {
	Success       bool
	TransactionID string
	FailureReason string
}

type Gateway interface {
	Charge(ctx context.Context, payment domain.Payment) (Result, error)
	Refund(ctx context.Context, payment domain.Payment, amount float64) (Result, error)
}

const (
	ChargeDeclinedReason = "Payment processing failed"
	RefundDeclinedReason = "Refund processing failed"
)

type SimulatedConfig struct {
	Delay             time.Duration
	ChargeSuccessRate float64
	RefundSuccessRate float64
}

// SimulatedGateway approves operations at random after a fixed delay.
type SimulatedGateway struct {
	cfg   SimulatedConfig
	rand  func() float64
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSimulatedGateway(cfg SimulatedConfig) *SimulatedGateway {
	return &SimulatedGateway{
		cfg:   cfg,
		rand:  rand.Float64,
		now:   time.Now,
		sleep: sleepContext,
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ domain.Payment) (Result, error) {
	return g.attempt(ctx, g.cfg.ChargeSuccessRate, ChargeDeclinedReason)
}

func (g *SimulatedGateway) Refund(ctx context.Context, _ domain.Payment, _ float64) (Result, error) {
	return g.attempt(ctx, g.cfg.RefundSuccessRate, RefundDeclinedReason)
}

func (g *SimulatedGateway) attempt(ctx context.Context, successRate float64, declined string) (Result, error) {
	if err := g.sleep(ctx, g.cfg.Delay); err != nil {
		return Result{}, err
	}

	if g.rand() >= successRate {
		return Result{Success: false, FailureReason: declined}, nil
	}

	return Result{
		Success:       true,
		TransactionID: domain.NewReference("TXN", g.now()),
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
