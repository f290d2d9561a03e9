package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/dto"
	"storefront/internal/httpx"
	"storefront/internal/middleware"
	"storefront/internal/user/service"
	"storefront/internal/validation"
)

type UserService interface {
	Register(ctx context.Context, in domain.NewUser) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, filter domain.UserFilter) (*domain.Page[domain.User], error)
	UpdateUser(ctx context.Context, id string, changes domain.UserChanges) (*domain.User, error)
	ChangePassword(ctx context.Context, id, current, next string) error
	Deactivate(ctx context.Context, id string) (*domain.User, error)
	GetUserStats(ctx context.Context) (*domain.UserStats, error)
}

type UserController struct {
	service   UserService
	validator *validation.Validator
	responder *httpx.Responder
	logger    *zap.Logger
}

func NewUserController(service UserService, validator *validation.Validator, responder *httpx.Responder, logger *zap.Logger) *UserController {
	return &UserController{
		service:   service,
		validator: validator,
		responder: responder,
		logger:    logger,
	}
}

// Routes mounts under /api/users. Registration and login are public, the
// profile routes need a session and the rest is admin only.
func (c *UserController) Routes(a *middleware.Auth) http.Handler {
	r := chi.NewRouter()

	r.With(a.OptionalAuthenticate).Post("/register", c.Register)
	r.Post("/login", c.Login)

	r.Group(func(r chi.Router) {
		r.Use(a.Authenticate)

		r.Get("/profile", c.GetProfile)
		r.Put("/profile", c.UpdateProfile)
		r.Put("/change-password", c.ChangePassword)
		r.Patch("/deactivate", c.Deactivate)

		r.Group(func(r chi.Router) {
			r.Use(a.RequireRole(domain.RoleAdmin))

			r.Get("/", c.ListUsers)
			r.Get("/stats", c.GetUserStats)
			r.Get("/{userId}", c.GetUser)
			r.Put("/{userId}", c.UpdateUser)
		})
	})

	return r
}

// Register creates an account. Only an authenticated admin may choose the
// role; everyone else becomes a plain user.
func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	in := req.ToDomain()
	if claims, ok := middleware.ClaimsFromContext(r.Context()); !ok || !claims.IsAdmin() {
		if in.Role != "" && in.Role != domain.RoleUser {
			c.logger.Warn("ignoring requested role on self registration", zap.String("role", string(in.Role)))
		}
		in.Role = domain.RoleUser
	}

	user, err := c.service.Register(r.Context(), in)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusCreated, dto.NewUserResponse(user), "User registered successfully")
}

func (c *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	result, err := c.service.Login(r.Context(), strings.ToLower(req.Email), req.Password)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.LoginResponse{
		User:      dto.NewUserResponse(result.User),
		Token:     result.Token,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
	}, "Login successful")
}

func (c *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := c.service.GetUser(r.Context(), middleware.MustClaims(r).UserID)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewUserResponse(user), "")
}

func (c *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	changes := req.ToDomain()
	// activation is managed by deactivate and by admins
	changes.IsActive = nil

	user, err := c.service.UpdateUser(r.Context(), middleware.MustClaims(r).UserID, changes)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewUserResponse(user), "Profile updated successfully")
}

func (c *UserController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	if err := c.service.ChangePassword(r.Context(), middleware.MustClaims(r).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, nil, "Password changed successfully")
}

func (c *UserController) Deactivate(w http.ResponseWriter, r *http.Request) {
	user, err := c.service.Deactivate(r.Context(), middleware.MustClaims(r).UserID)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewUserResponse(user), "Account deactivated successfully")
}

func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts, err := httpx.ListOptions(q, domain.UserSortFields)
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	role, err := httpx.Enum(q, "role", domain.Roles())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	isActive, err := httpx.Bool(q, "isActive")
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	page, err := c.service.ListUsers(r.Context(), domain.UserFilter{
		ListOptions: opts,
		Role:        role,
		IsActive:    isActive,
		Search:      strings.TrimSpace(q.Get("search")),
	})
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.Page(w, dto.NewUserResponses(page.Items), httpx.NewPagination(page))
}

func (c *UserController) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.GetUserStats(r.Context())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewUserStatsResponse(stats), "")
}

func (c *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := c.service.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewUserResponse(user), "")
}

func (c *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if err := c.validator.DecodeJSON(r, &req); err != nil {
		c.responder.Error(w, r, err)
		return
	}

	user, err := c.service.UpdateUser(r.Context(), chi.URLParam(r, "userId"), req.ToDomain())
	if err != nil {
		c.responder.Error(w, r, err)
		return
	}

	c.responder.JSON(w, http.StatusOK, dto.NewUserResponse(user), "User updated successfully")
}
