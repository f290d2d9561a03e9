package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

func Roles() []Role {
	return []Role{RoleUser, RoleAdmin, RoleModerator}
}

func (r Role) IsValid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Phone        string
	DateOfBirth  *time.Time
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type NewUser struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        Role
	Phone       string
	DateOfBirth *time.Time
}

type UserChanges struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	DateOfBirth *time.Time
	IsActive    *bool
}

type UserUpdate struct {
	UserChanges
	PasswordHash *string
	LastLoginAt  *time.Time
	UpdatedAt    time.Time
}

type UserFilter struct {
	ListOptions
	Role     Role
	IsActive *bool
	Search   string
}

type UserStats struct {
	TotalUsers    int64
	ActiveUsers   int64
	InactiveUsers int64
	RoleCounts    map[Role]int64
}

var UserSortFields = []string{"createdAt", "updatedAt", "firstName", "lastName", "email"}
