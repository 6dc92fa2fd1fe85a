// Package directory is the authentication endpoint's user store: who exists,
// what role they hold and how their password verifies.
package directory

import (
	"context"
	"errors"
	"time"

	"peopledesk.org/internal/rbac"
)

var (
	ErrNotFound      = errors.New("directory: user not found")
	ErrAlreadyExists = errors.New("directory: user already exists")
	ErrInvalidInput  = errors.New("directory: invalid input")
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User is a portal account as the authentication endpoint sees it.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         rbac.Role `json:"role"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Directory resolves accounts for the credential exchange.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Ping(ctx context.Context) error
}
