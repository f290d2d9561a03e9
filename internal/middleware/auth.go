package middleware

import (
	"context"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
	"storefront/internal/httpx"
)

type contextKey string

const claimsKey contextKey = "claims"

type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type Auth struct {
	verifier  TokenVerifier
	responder *httpx.Responder
	logger    *zap.Logger
}

func NewAuth(verifier TokenVerifier, responder *httpx.Responder, logger *zap.Logger) *Auth {
	return &Auth{
		verifier:  verifier,
		responder: responder,
		logger:    logger,
	}
}

// Authenticate rejects requests without a valid bearer token.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			a.responder.Error(w, r, apperrors.NewUnauthorizedError("No token provided"))
			return
		}

		claims, err := a.verifier.VerifyToken(token)
		if err != nil {
			a.responder.Error(w, r, err)
			return
		}

		a.logger.Debug("user authenticated",
			zap.String("userId", claims.UserID),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
		)

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// OptionalAuthenticate attaches claims when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Auth) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := auth.ExtractBearerToken(r.Header.Get("Authorization")); ok {
			if claims, err := a.verifier.VerifyToken(token); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			} else {
				a.logger.Debug("optional authentication failed", zap.Error(err))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole must run after Authenticate.
func (a *Auth) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				a.responder.Error(w, r, apperrors.NewUnauthorizedError("Authentication required"))
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, domain.Role(claims.Role)) {
				a.responder.Error(w, r, apperrors.NewForbiddenError("Insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// MustClaims is for handlers mounted behind Authenticate.
func MustClaims(r *http.Request) *auth.Claims {
	claims, _ := ClaimsFromContext(r.Context())
	return claims
}
