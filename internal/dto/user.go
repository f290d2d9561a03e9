package dto

import (
	"time"

	"storefront/internal/domain"
)

type RegisterRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required"`
	FirstName   string     `json:"firstName" validate:"required,max=100"`
	LastName    string     `json:"lastName" validate:"required,max=100"`
	Role        string     `json:"role,omitempty" validate:"omitempty,oneof=user admin moderator"`
	Phone       string     `json:"phone,omitempty" validate:"max=30"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

func (r RegisterRequest) ToDomain() domain.NewUser {
	return domain.NewUser{
		Email:       r.Email,
		Password:    r.Password,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Role:        domain.Role(r.Role),
		Phone:       r.Phone,
		DateOfBirth: r.DateOfBirth,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	FirstName   *string    `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName    *string    `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
}

func (r UpdateUserRequest) ToDomain() domain.UserChanges {
	return domain.UserChanges{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		DateOfBirth: r.DateOfBirth,
		IsActive:    r.IsActive,
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID          string     `json:"_id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        string(u.Role),
		Phone:       u.Phone,
		DateOfBirth: u.DateOfBirth,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = NewUserResponse(&users[i])
	}
	return out
}

// LoginResponse reports the token lifetime in seconds.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
}

type UserStatsResponse struct {
	TotalUsers    int64            `json:"totalUsers"`
	ActiveUsers   int64            `json:"activeUsers"`
	InactiveUsers int64            `json:"inactiveUsers"`
	RoleCounts    map[string]int64 `json:"roleCounts"`
}

func NewUserStatsResponse(s *domain.UserStats) UserStatsResponse {
	roles := make(map[string]int64, len(domain.Roles()))
	for _, role := range domain.Roles() {
		roles[string(role)] = s.RoleCounts[role]
	}

	return UserStatsResponse{
		TotalUsers:    s.TotalUsers,
		ActiveUsers:   s.ActiveUsers,
		InactiveUsers: s.InactiveUsers,
		RoleCounts:    roles,
	}
}
