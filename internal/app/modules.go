package app

import (
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/middleware"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/user"
	"storefront/internal/validation"
)

// Deps are the shared collaborators every module is built from.
type Deps struct {
	Config        *config.Config
	DB            *mongo.Database
	Authenticator *auth.Authenticator
	Validator     *validation.Validator
	Responder     *httpx.Responder
	Logger        *zap.Logger
}

type routable interface {
	Routes(a *middleware.Auth) http.Handler
}

// Module is one independently deployable service.
type Module struct {
	Name        string
	DisplayName string
	BasePath    string
	build       func(d Deps) routable
}

func Orders() Module {
	return Module{
		Name:        "orders",
		DisplayName: "Orders",
		BasePath:    "/api/orders",
		build: func(d Deps) routable {
			return order.NewModule(d.DB, d.Validator, d.Responder, d.Logger)
		},
	}
}

func Payments() Module {
	return Module{
		Name:        "payments",
		DisplayName: "Payments",
		BasePath:    "/api/payments",
		build: func(d Deps) routable {
			return payment.NewModule(d.DB, d.Config.Payment, d.Validator, d.Responder, d.Logger)
		},
	}
}

func Users() Module {
	return Module{
		Name:        "users",
		DisplayName: "Users",
		BasePath:    "/api/users",
		build: func(d Deps) routable {
			return user.NewModule(d.DB, d.Authenticator, d.Validator, d.Responder, d.Logger)
		},
	}
}
