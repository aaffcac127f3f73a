package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// List returns the projects visible to the current user
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListForUser(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// GetByID returns the project detail view
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	detail, err := h.projectService.Get(c.Request.Context(), user, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, detail)
}

// Create POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}

	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), user, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// Update PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Delete DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), user, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
