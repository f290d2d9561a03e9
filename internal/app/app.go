package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/infrastructure/logger"
	"storefront/internal/infrastructure/mongodb"
	"storefront/internal/middleware"
	"storefront/internal/server"
	"storefront/internal/validation"
)

// Main runs modules in one process, the i-th listening on PORT+i, and exits
// the process on any startup or listener failure.
func Main(modules ...Module) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Pretty, cfg.App.IsProduction())
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg, zapLogger, modules...); err != nil {
		zapLogger.Fatal("service terminated", zap.Error(err))
	}
}

// Run connects to the database, serves every module until ctx is cancelled
// or a listener fails, then shuts everything down within the configured
// timeout.
func Run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, modules ...Module) error {
	client, err := mongodb.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := mongodb.Disconnect(shutdownCtx, client); err != nil {
			zapLogger.Error("database disconnect failed", zap.Error(err))
			return
		}
		zapLogger.Info("database connection closed")
	}()
	zapLogger.Info("database connected", zap.String("database", cfg.Database.Name))

	servers, done := Build(cfg, client.Database(cfg.Database.Name), zapLogger, modules...)
	defer close(done)

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *server.Server) {
			if err := srv.Start(); err != nil {
				errCh <- err
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		zapLogger.Info("received shutdown signal")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var shutdownErrs []error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErrs = append(shutdownErrs, fmt.Errorf("shutting down %s: %w", srv.Addr(), err))
		}
	}
	if err := errors.Join(append([]error{runErr}, shutdownErrs...)...); err != nil {
		return err
	}

	zapLogger.Info("server stopped gracefully")
	return nil
}

// Build wires one HTTP server per module against db. Closing done stops the
// background rate limiter cleanup.
func Build(cfg *config.Config, db *mongo.Database, zapLogger *zap.Logger, modules ...Module) ([]*server.Server, chan struct{}) {
	done := make(chan struct{})
	authenticator := auth.NewAuthenticator(auth.Config{
		Secret:    cfg.Security.JWTSecret,
		ExpiresIn: cfg.Security.JWTExpiresIn,
	})
	validator := validation.New()
	cors := middleware.NewCORS(cfg.CORS.Origins)

	servers := make([]*server.Server, 0, len(modules))
	for i, m := range modules {
		svcLogger := zapLogger.With(zap.String("service", m.Name))
		responder := httpx.NewResponder(svcLogger, cfg.App.IsDevelopment(), cfg.App.IsProduction())

		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow, responder, svcLogger)
		limiter.StartCleanup(cfg.Server.RateLimitWindow, done)

		ctrl := m.build(Deps{
			Config:        cfg,
			DB:            db,
			Authenticator: authenticator,
			Validator:     validator,
			Responder:     responder,
			Logger:        svcLogger,
		})

		router := server.NewRouter(server.RouterConfig{
			Service:     m.Name,
			DisplayName: m.DisplayName,
			BasePath:    m.BasePath,
			Routes:      ctrl.Routes(middleware.NewAuth(authenticator, responder, svcLogger)),
			Responder:   responder,
			Logger:      svcLogger,
			Metrics:     middleware.NewMetrics(m.Name),
			RateLimiter: limiter,
			CORS:        cors,
			TrustProxy:  cfg.Server.TrustProxy,
		})

		servers = append(servers, server.New(cfg.Server.Host, cfg.Server.Port+i, router, svcLogger))
	}

	return servers, done
}
