package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
)

// Service exposes user bounded context use cases.
type Service struct {
	repo     ports.Repository
	sessions ports.SessionStore
	tokens   ports.TokenIssuer
	now      func() time.Time
	newID    func() string
}

func NewService(repo ports.Repository, sessions ports.SessionStore, tokens ports.TokenIssuer) *Service {
	return &Service{repo: repo, sessions: sessions, tokens: tokens, now: time.Now, newID: uuid.NewString}
}

// WithClock overrides the time source for deterministic testing.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.create(ctx, input, domain.RoleCustomer)
}

// Provision creates a user with the given role, returning the existing account
// when the username is already registered. Used to bootstrap administrators.
func (s *Service) Provision(ctx context.Context, input ports.RegisterInput, role domain.Role) (*domain.User, error) {
	user, err := s.create(ctx, input, role)
	if errors.Is(err, ports.ErrUsernameTaken) {
		return s.repo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	}
	return user, err
}

func (s *Service) create(ctx context.Context, input ports.RegisterInput, role domain.Role) (*domain.User, error) {
	user, err := domain.NewUser(s.newID(), input.Username, input.Email, input.Password)
	if err != nil {
		return nil, mapError(err)
	}
	if err := user.SetRole(role); err != nil {
		return nil, mapError(err)
	}
	user.CreatedAt = s.now().UTC()
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, deniedLogin()
	}
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, deniedLogin()
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, deniedLogin()
	}
	now := s.now().UTC()
	session := domain.Session{
		ID:        s.newID(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(ctx, ports.TokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, err
	}
	return &ports.LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Logout revokes the session behind the identity.
func (s *Service) Logout(ctx context.Context, identity domain.Identity) error {
	if strings.TrimSpace(identity.SessionID) == "" {
		return nil
	}
	return s.sessions.Delete(ctx, identity.SessionID)
}

func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, mapError(ports.ErrUnauthenticated)
	}
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, mapError(err)
	}
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, mapError(err)
	}
	if session.UserID != claims.UserID || session.Expired(s.now()) {
		return nil, mapError(ports.ErrUnauthenticated)
	}
	return &domain.Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

var _ ports.Service = (*Service)(nil)
