package ports

import (
	"context"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
)

// SessionStore abstracts session persistence.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	// Get returns the session, or ErrUnauthenticated when it is unknown.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// PurgeExpired removes expired sessions and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
