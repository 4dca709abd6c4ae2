package shopserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/http/mapper"
	userports "github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
)

// UserAPI exposes registration and bearer-token sessions.
type UserAPI struct {
	service userports.Service
}

// NewUserAPI wires dependencies.
func NewUserAPI(service userports.Service) UserAPI {
	return UserAPI{service: service}
}

// Post /users/register
// Creates a customer account
func (api *UserAPI) RegisterUser(c *gin.Context) {
	var payload userhttpmapper.Register
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := api.service.Register(c.Request.Context(), userhttpmapper.ToRegisterInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userhttpmapper.FromDomainUser(user))
}

// Post /users/login
// Exchanges credentials for a bearer token
func (api *UserAPI) LoginUser(c *gin.Context) {
	var payload userhttpmapper.Login
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := api.service.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromLoginResult(result))
}

// Post /users/logout
// Revokes the session behind the presented token
func (api *UserAPI) LogoutUser(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	if err := api.service.Logout(c.Request.Context(), identity); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

// Get /users/me
// Returns the authenticated user
func (api *UserAPI) CurrentUser(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	user, err := api.service.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(user))
}
