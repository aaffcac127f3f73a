package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
)

const (
	ContextUser  = "user"
	ContextEmail = "email"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// resolved user in the context.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "not authenticated")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextEmail, user.Email)
		c.Next()
	}
}

// SuperuserRequired must run after AuthRequired.
func SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsSuperuser {
			response.Forbidden(c, "superuser access required")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(ContextUser); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}
