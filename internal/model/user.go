package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by a user and embedded in tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a user account. An account is created
// pending and becomes active exactly once, through email verification.
// Only active accounts can log in.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

// UserStore defines persistence operations for users. Email uniqueness
// (case-insensitive) is enforced by the store's unique index, not by a
// check-then-insert in the service.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// User represents a stored user account.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
