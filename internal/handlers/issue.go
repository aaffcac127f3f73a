package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/pkg/response"
)

type IssueHandler struct {
	issueService *services.IssueService
}

func NewIssueHandler(issueService *services.IssueService) *IssueHandler {
	return &IssueHandler{issueService: issueService}
}

// List returns the project's issues visible to the current user
// GET /api/projects/:id/issues
func (h *IssueHandler) List(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	var req services.IssueListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	issues, err := h.issueService.List(c.Request.Context(), user, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issues)
}

// Create POST /api/projects/:id/issues
func (h *IssueHandler) Create(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	var req services.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	issue, err := h.issueService.Create(c.Request.Context(), user, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, issue)
}

// GetByID GET /api/issues/:id
func (h *IssueHandler) GetByID(c *gin.Context) {
	h.transition(c, h.issueService.Get)
}

// Update PUT /api/issues/:id
func (h *IssueHandler) Update(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "issue")
	if !ok {
		return
	}

	var req services.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	issue, err := h.issueService.Update(c.Request.Context(), user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}

// Delete DELETE /api/issues/:id
func (h *IssueHandler) Delete(c *gin.Context) {
	h.terminal(c, h.issueService.Delete)
}

// ApproveProposal POST /api/issues/:id/approve
func (h *IssueHandler) ApproveProposal(c *gin.Context) {
	h.transition(c, h.issueService.ApproveProposal)
}

// RejectProposal deletes the proposal.
// POST /api/issues/:id/reject
func (h *IssueHandler) RejectProposal(c *gin.Context) {
	h.terminal(c, h.issueService.RejectProposal)
}

// RequestAssignment POST /api/issues/:id/request-assignment
func (h *IssueHandler) RequestAssignment(c *gin.Context) {
	h.transition(c, h.issueService.RequestAssignment)
}

// ApproveAssignment POST /api/issues/:id/approve-assignment
func (h *IssueHandler) ApproveAssignment(c *gin.Context) {
	h.transition(c, h.issueService.ApproveAssignment)
}

// RejectAssignment POST /api/issues/:id/reject-assignment
func (h *IssueHandler) RejectAssignment(c *gin.Context) {
	h.transition(c, h.issueService.RejectAssignment)
}

type issueOp func(ctx context.Context, actor *models.User, issueID uuid.UUID) (*models.Issue, error)

// transition runs a body-less operation on /issues/:id and returns the issue.
func (h *IssueHandler) transition(c *gin.Context, op issueOp) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "issue")
	if !ok {
		return
	}

	issue, err := op(c.Request.Context(), user, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}

// terminal runs an operation that removes the issue.
func (h *IssueHandler) terminal(c *gin.Context, op func(context.Context, *models.User, uuid.UUID) error) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "issue")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), user, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
