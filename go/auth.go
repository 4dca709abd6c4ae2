package shopserver

import (
	"strings"

	"github.com/gin-gonic/gin"

	userdomain "github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
	apierrors "github.com/Apurer/go-gin-shop-api/internal/shared/errors"
)

const identityKey = "shopserver.identity"

// RequireIdentity resolves the bearer token to an identity or aborts with 401.
func RequireIdentity(users userports.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if users == nil {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail("authentication is not configured"))
			return
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="shop"`)
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail("missing bearer token"))
			return
		}
		identity, err := users.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="shop", error="invalid_token"`)
			respondServiceError(c, err)
			return
		}
		c.Set(identityKey, *identity)
		c.Next()
	}
}

// RequireAdmin must run after RequireIdentity.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFrom(c)
		if !ok {
			respondProblem(c, apierrors.ErrUnauthorized)
			return
		}
		if !identity.IsAdmin() {
			respondProblem(c, apierrors.ErrForbidden.WithDetail("admin role required"))
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) (userdomain.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return userdomain.Identity{}, false
	}
	identity, ok := value.(userdomain.Identity)
	return identity, ok
}

// mustIdentity fetches the caller, answering 401 when the route was mounted without auth.
func mustIdentity(c *gin.Context) (userdomain.Identity, bool) {
	identity, ok := identityFrom(c)
	if !ok {
		respondProblem(c, apierrors.ErrUnauthorized)
	}
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
