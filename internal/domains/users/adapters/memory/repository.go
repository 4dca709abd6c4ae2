package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory user adapter indexed by id and username.
type Repository struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	byUsername map[string]string
}

func NewRepository() *Repository {
	return &Repository{users: map[string]*domain.User{}, byUsername: map[string]string{}}
}

func (r *Repository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := *user
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byUsername[clone.Username]; taken {
		return nil, ports.ErrUsernameTaken
	}
	r.users[clone.ID] = &clone
	r.byUsername[clone.Username] = clone.ID
	out := clone
	return &out, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *Repository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *r.users[id]
	return &clone, nil
}
