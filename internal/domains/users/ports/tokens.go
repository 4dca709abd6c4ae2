package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
)

// TokenClaims are the facts a bearer token asserts.
type TokenClaims struct {
	UserID    string
	Username  string
	Role      domain.Role
	SessionID string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, claims TokenClaims) (string, error)
	// Verify checks signature and expiry, failing with ErrUnauthenticated.
	Verify(ctx context.Context, token string) (*TokenClaims, error)
	TTL() time.Duration
}
