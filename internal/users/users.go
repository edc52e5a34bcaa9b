package users

import (
	"context"
	"errors"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Directory is the read-only lookup surface consumed by order placement.
type Directory interface {
	FindByID(ctx context.Context, id string) (User, error)
}

type Store interface {
	Directory
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u *User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	All(ctx context.Context) ([]User, error)
}
