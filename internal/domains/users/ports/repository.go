package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated is returned when a credential is missing, malformed, expired or revoked.
	ErrUnauthenticated = errors.New("unauthenticated")
)

type Repository interface {
	// Create inserts a new user, failing with ErrUsernameTaken on duplicates.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
