package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
)

const invalidCredentials = "Invalid email or password"

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindMany(ctx context.Context, filter domain.UserFilter) ([]domain.User, int64, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id string, at time.Time) (*domain.User, error)
	Stats(ctx context.Context) (*domain.UserStats, error)
}

type Credentials interface {
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
	GenerateToken(userID, email, role string) (string, error)
	ExpiresIn() time.Duration
}

type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresIn time.Duration
}

type UserService struct {
	repo        UserRepository
	credentials Credentials
	logger      *zap.Logger
	now         func() time.Time
}

func NewUserService(repo UserRepository, credentials Credentials, logger *zap.Logger) *UserService {
	return &UserService{
		repo:        repo,
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, apperrors.NewConflictError("User with this email already exists")
	}
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		return nil, err
	}

	if err := checkPasswordPolicy(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.credentials.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("hashing password", err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		Phone:        in.Phone,
		DateOfBirth:  in.DateOfBirth,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.logger.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("userId", created.ID),
		zap.String("email", created.Email),
		zap.String("role", string(created.Role)),
	)

	return created, nil
}

// Unknown emails and wrong passwords share one message.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			s.logger.Warn("login failed", zap.String("email", email), zap.String("reason", "unknown email"))
			return nil, apperrors.NewUnauthorizedError(invalidCredentials)
		}
		return nil, err
	}

	if !user.IsActive {
		s.logger.Warn("login failed", zap.String("userId", user.ID), zap.String("reason", "account deactivated"))
		return nil, apperrors.NewUnauthorizedError("Account is deactivated")
	}

	if !s.credentials.ComparePassword(password, user.PasswordHash) {
		s.logger.Warn("login failed", zap.String("userId", user.ID), zap.String("reason", "wrong password"))
		return nil, apperrors.NewUnauthorizedError(invalidCredentials)
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, err := s.credentials.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.NewInternalError("signing token", err)
	}

	s.logger.Info("user logged in",
		zap.String("userId", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
	)

	return &LoginResult{User: user, Token: token, ExpiresIn: s.credentials.ExpiresIn()}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, filter domain.UserFilter) (*domain.Page[domain.User], error) {
	users, total, err := s.repo.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	return domain.NewPage(users, total, filter.ListOptions), nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, changes domain.UserChanges) (*domain.User, error) {
	updated, err := s.repo.Update(ctx, id, domain.UserUpdate{
		UserChanges: changes,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", zap.String("userId", updated.ID), zap.String("email", updated.Email))
	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !s.credentials.ComparePassword(current, user.PasswordHash) {
		return apperrors.NewBadRequestError("Current password is incorrect")
	}

	if err := checkPasswordPolicy(next); err != nil {
		return err
	}

	hash, err := s.credentials.HashPassword(next)
	if err != nil {
		return apperrors.NewInternalError("hashing password", err)
	}

	if _, err := s.repo.Update(ctx, id, domain.UserUpdate{
		PasswordHash: &hash,
		UpdatedAt:    s.now().UTC(),
	}); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("userId", user.ID))
	return nil
}

func (s *UserService) Deactivate(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewBadRequestError("User account is already deactivated")
	}

	deactivated, err := s.repo.Deactivate(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("user deactivated", zap.String("userId", deactivated.ID), zap.String("email", deactivated.Email))
	return deactivated, nil
}

func (s *UserService) GetUserStats(ctx context.Context) (*domain.UserStats, error) {
	return s.repo.Stats(ctx)
}

func checkPasswordPolicy(password string) error {
	problems := auth.ValidatePassword(password)
	if len(problems) == 0 {
		return nil
	}

	details := make([]apperrors.ValidationDetail, len(problems))
	for i, p := range problems {
		details[i] = apperrors.ValidationDetail{Field: "password", Message: p}
	}
	return apperrors.NewValidationError("Password validation failed: "+strings.Join(problems, ", "), details...)
}
