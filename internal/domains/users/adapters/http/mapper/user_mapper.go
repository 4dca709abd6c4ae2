package mapper

import (
	"time"

	userdomain "github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
)

// Register is the registration request body.
type Register struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password" binding:"required"`
}

// Login is the credentials request body.
type Login struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// User represents the transport-level user payload. The password hash never leaves the service.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Token is returned by a successful login.
type Token struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

func ToRegisterInput(body Register) userports.RegisterInput {
	return userports.RegisterInput{Username: body.Username, Email: body.Email, Password: body.Password}
}

// FromDomainUser converts a domain user into a transport representation.
func FromDomainUser(user *userdomain.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

func FromLoginResult(result *userports.LoginResult) Token {
	if result == nil {
		return Token{}
	}
	return Token{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
		User:      FromDomainUser(result.User),
	}
}
