package payment

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/payment/controller"
	"storefront/internal/payment/gateway"
	paymentrepo "storefront/internal/payment/repository"
	"storefront/internal/payment/service"
	"storefront/internal/validation"
)

func NewModule(db *mongo.Database, cfg config.PaymentConfig, validator *validation.Validator, responder *httpx.Responder, logger *zap.Logger) *controller.PaymentController {
	paymentRepo := paymentrepo.NewMongoPaymentRepository(db)
	gw := gateway.NewSimulatedGateway(gateway.SimulatedConfig{
		Delay:             cfg.GatewayDelay,
		ChargeSuccessRate: cfg.ChargeSuccessRate,
		RefundSuccessRate: cfg.RefundSuccessRate,
	})
	paymentSvc := service.NewPaymentService(paymentRepo, gw, logger)

	return controller.NewPaymentController(paymentSvc, validator, responder, logger)
}
