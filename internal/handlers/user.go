package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/pkg/response"
)

// UserHandler serves the superuser-only user administration routes.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	users, err := h.userService.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, users)
}

// Create POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// UpdatePrivileges toggles is_superuser / is_active.
// PUT /api/users/:id
func (h *UserHandler) UpdatePrivileges(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	userID, ok := paramUUID(c, "id", "user")
	if !ok {
		return
	}

	var req services.UpdatePrivilegesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.userService.UpdatePrivileges(c.Request.Context(), user, userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, updated)
}
