package order

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"storefront/internal/httpx"
	"storefront/internal/order/controller"
	orderrepo "storefront/internal/order/repository"
	"storefront/internal/order/service"
	"storefront/internal/validation"
)

func NewModule(db *mongo.Database, validator *validation.Validator, responder *httpx.Responder, logger *zap.Logger) *controller.OrderController {
	orderRepo := orderrepo.NewMongoOrderRepository(db)
	orderSvc := service.NewOrderService(orderRepo, logger)

	return controller.NewOrderController(orderSvc, validator, responder, logger)
}
