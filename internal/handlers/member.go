package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/pkg/response"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// List GET /api/projects/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	members, err := h.memberService.List(c.Request.Context(), user, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}

// Assign adds a user to the project by email
// POST /api/projects/:id/members
func (h *MemberHandler) Assign(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	var req services.AssignMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.memberService.Assign(c.Request.Context(), user, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, member)
}

// UpdateRole PUT /api/projects/:id/members/:user_id
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := paramUUID(c, "user_id", "user")
	if !ok {
		return
	}

	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.memberService.UpdateRole(c.Request.Context(), user, projectID, userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, member)
}

// Remove DELETE /api/projects/:id/members/:user_id
func (h *MemberHandler) Remove(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := paramUUID(c, "user_id", "user")
	if !ok {
		return
	}

	if err := h.memberService.Remove(c.Request.Context(), user, projectID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
