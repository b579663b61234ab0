package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProducer Role = "producer"
	RoleViewer   Role = "viewer"
)

// ValidRole reports whether r is one of the known user roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleProducer, RoleViewer:
		return true
	}
	return false
}

// CanProduce reports whether the role may send and clear cards.
func (r Role) CanProduce() bool {
	return r == RoleAdmin || r == RoleProducer
}

type User struct {
	ID           int64      `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         Role       `db:"role"`
	IsActive     bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLogin    *time.Time `db:"last_login"`
}

// UserUpdate carries optional field updates; nil means leave unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
	Role     *Role
	IsActive *bool
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, username, email, passwordHash string, role Role) (int64, error)
	Update(ctx context.Context, id int64, update UserUpdate) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
