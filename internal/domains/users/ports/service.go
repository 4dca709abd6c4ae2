package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Service exposes user bounded context use cases to adapters.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, identity domain.Identity) error
	// Authenticate resolves a bearer token to the identity of a live session.
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
