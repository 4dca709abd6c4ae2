package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/memory"
	"github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/tokens"
	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *memory.SessionStore, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer, err := tokens.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	issuer.WithClock(clock.Now)
	sessions := memory.NewSessionStore()
	svc := NewService(memory.NewRepository(), sessions, issuer).WithClock(clock.Now)
	return svc, sessions, clock
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	user, err := svc.Register(ctx, ports.RegisterInput{Username: " alice ", Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, domain.RoleCustomer, user.Role)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "correct-horse", user.PasswordHash)

	result, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, user.ID, result.User.ID)

	identity, err := svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)
	require.False(t, identity.IsAdmin())
}

func TestRegisterRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(ctx, ports.RegisterInput{Username: "bob", Password: "short"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, ports.RegisterInput{Username: "bob", Password: "long-enough"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, ports.RegisterInput{Username: "bob", Password: "long-enough"})
	require.ErrorIs(t, err, ports.ErrUsernameTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.Register(ctx, ports.RegisterInput{Username: "carol", Password: "long-enough"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "carol", "wrong-password")
	require.ErrorIs(t, err, ErrAuthentication)
	_, err = svc.Login(ctx, "nobody", "long-enough")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.Register(ctx, ports.RegisterInput{Username: "dave", Password: "long-enough"})
	require.NoError(t, err)
	result, err := svc.Login(ctx, "dave", "long-enough")
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, *identity))

	_, err = svc.Authenticate(ctx, result.Token)
	require.ErrorIs(t, err, ports.ErrUnauthenticated)
}

func TestAuthenticateRejectsExpiredSession(t *testing.T) {
	ctx := context.Background()
	svc, sessions, clock := newTestService(t)
	_, err := svc.Register(ctx, ports.RegisterInput{Username: "erin", Password: "long-enough"})
	require.NoError(t, err)
	result, err := svc.Login(ctx, "erin", "long-enough")
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Hour)
	_, err = svc.Authenticate(ctx, result.Token)
	require.ErrorIs(t, err, ports.ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "")
	require.ErrorIs(t, err, ports.ErrUnauthenticated)

	purged, err := sessions.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)
}

func TestProvisionReturnsExistingAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	input := ports.RegisterInput{Username: "admin", Password: "admin-password"}

	first, err := svc.Provision(ctx, input, domain.RoleAdmin)
	require.NoError(t, err)
	require.True(t, first.IsAdmin())

	second, err := svc.Provision(ctx, input, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	loaded, err := svc.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "admin", loaded.Username)
}

func TestMapError_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		want    error
		wantNot error
	}{
		{"weak password", domain.ErrWeakPassword, ErrInvalidInput, ErrAuthentication},
		{"bad role", domain.ErrInvalidRole, ErrInvalidInput, ErrAuthentication},
		{"wrong password", ports.ErrInvalidCredentials, ErrAuthentication, ErrInvalidInput},
		{"revoked session", ports.ErrUnauthenticated, ErrAuthentication, ErrInvalidInput},
		{"duplicate username", ports.ErrUsernameTaken, ports.ErrUsernameTaken, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.err)
			require.ErrorIs(t, got, tc.want)
			require.ErrorIs(t, got, tc.err)
			require.NotErrorIs(t, got, tc.wantNot)
		})
	}
	require.NoError(t, mapError(nil))
}

func TestAuthenticateFailuresAreAuthenticationErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Authenticate(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrAuthentication)
	require.ErrorIs(t, err, ports.ErrUnauthenticated)
}
