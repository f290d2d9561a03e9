package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
)

const DefaultBcryptCost = 12

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c.Role == string(domain.RoleAdmin)
}

// CanAccess reports whether the holder may act on a resource owned by ownerID.
func (c *Claims) CanAccess(ownerID string) bool {
	return c.IsAdmin() || c.UserID == ownerID
}

// CustomerScope is the customer filter for lists and stats. Admins may pick
// any customer or none; everyone else is pinned to themselves.
func (c *Claims) CustomerScope(requested string) string {
	if c.IsAdmin() {
		return requested
	}
	return c.UserID
}

// OwnerFor is the customer a new order or payment is recorded against.
func (c *Claims) OwnerFor(requested string) string {
	if c.IsAdmin() && requested != "" {
		return requested
	}
	return c.UserID
}

type Config struct {
	Secret     string
	ExpiresIn  time.Duration
	BcryptCost int
}

// Authenticator hashes passwords and issues and verifies HS256 session tokens.
type Authenticator struct {
	secret     []byte
	expiresIn  time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthenticator(cfg Config) *Authenticator {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &Authenticator{
		secret:     []byte(cfg.Secret),
		expiresIn:  cfg.ExpiresIn,
		bcryptCost: cost,
		now:        time.Now,
	}
}

func (a *Authenticator) ExpiresIn() time.Duration {
	return a.expiresIn
}

func (a *Authenticator) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (a *Authenticator) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (a *Authenticator) GenerateToken(userID, email, role string) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiresIn)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature, algorithm and expiry. All failures are
// returned as UnauthorizedError.
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorizedError("Token expired")
		}
		return nil, apperrors.NewUnauthorizedError("Invalid token")
	}

	if !token.Valid || claims.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("Invalid token")
	}

	return claims, nil
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// ValidatePassword returns one message per violated rule; an empty result
// means the password is acceptable.
func ValidatePassword(password string) []string {
	var violations []string

	if len(password) < 8 {
		violations = append(violations, "Password must be at least 8 characters long")
	}
	if !upperRe.MatchString(password) {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !lowerRe.MatchString(password) {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !digitRe.MatchString(password) {
		violations = append(violations, "Password must contain at least one number")
	}
	if !specialRe.MatchString(password) {
		violations = append(violations, "Password must contain at least one special character")
	}

	return violations
}
