package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/middleware"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
)

// paramUUID parses a path parameter, writing a 400 on failure.
func paramUUID(c *gin.Context, name, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+entity+" id")
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the authenticated user, writing a 401 when missing.
func actor(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "not authenticated")
		return nil, false
	}
	return user, true
}
