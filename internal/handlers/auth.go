package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges credentials for a bearer token. Both JSON and the OAuth2
// password form (username/password) are accepted.
// POST /api/token
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetMe GET /api/users/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	response.Success(c, user)
}

// UpdateMe PUT /api/users/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}

	var req services.UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.authService.UpdateMe(c.Request.Context(), user, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, updated)
}

// ChangePassword PUT /api/users/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}

	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user, &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "password updated"})
}
