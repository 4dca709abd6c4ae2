package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
)

var (
	// ErrInvalidInput marks registration data the user domain refused.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrAuthentication marks a failed login, or a bearer token whose session
	// is unknown, expired or revoked.
	ErrAuthentication = errors.New("authentication failed")
)

var (
	rejectedProfile = []error{
		domain.ErrEmptyUsername,
		domain.ErrEmptyPassword,
		domain.ErrWeakPassword,
		domain.ErrInvalidEmail,
		domain.ErrInvalidRole,
	}
	rejectedCredential = []error{
		ports.ErrInvalidCredentials,
		ports.ErrUnauthenticated,
	}
)

// mapError tags domain and credential failures with the service sentinels.
// Anything else, duplicate usernames included, passes through untouched.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isAny(err, rejectedProfile):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case isAny(err, rejectedCredential):
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return err
}

// deniedLogin never says whether the username or the password was wrong.
func deniedLogin() error {
	return mapError(ports.ErrInvalidCredentials)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
