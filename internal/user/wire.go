package user

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/httpx"
	"storefront/internal/user/controller"
	userrepo "storefront/internal/user/repository"
	"storefront/internal/user/service"
	"storefront/internal/validation"
)

func NewModule(db *mongo.Database, authenticator *auth.Authenticator, validator *validation.Validator, responder *httpx.Responder, logger *zap.Logger) *controller.UserController {
	userRepo := userrepo.NewMongoUserRepository(db)
	userSvc := service.NewUserService(userRepo, authenticator, logger)

	return controller.NewUserController(userSvc, validator, responder, logger)
}
