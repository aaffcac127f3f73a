package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/pkg/response"
)

type PhaseHandler struct {
	phaseService *services.PhaseService
}

func NewPhaseHandler(phaseService *services.PhaseService) *PhaseHandler {
	return &PhaseHandler{phaseService: phaseService}
}

type reorderPhasesRequest struct {
	Phases []services.PhaseOrder `json:"phases" binding:"required,dive"`
}

// List returns phases in order with their progress
// GET /api/projects/:id/phases
func (h *PhaseHandler) List(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	phases, err := h.phaseService.List(c.Request.Context(), user, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, phases)
}

// Create POST /api/projects/:id/phases
func (h *PhaseHandler) Create(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	var req services.CreatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	phase, err := h.phaseService.Create(c.Request.Context(), user, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, phase)
}

// Reorder PUT /api/projects/:id/phases/reorder
func (h *PhaseHandler) Reorder(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "id", "project")
	if !ok {
		return
	}

	var req reorderPhasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	phases, err := h.phaseService.Reorder(c.Request.Context(), user, projectID, req.Phases)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, phases)
}

// Update PUT /api/phases/:id
func (h *PhaseHandler) Update(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "phase")
	if !ok {
		return
	}

	var req services.UpdatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	phase, err := h.phaseService.Update(c.Request.Context(), user, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, phase)
}

// Delete DELETE /api/phases/:id
func (h *PhaseHandler) Delete(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "phase")
	if !ok {
		return
	}

	if err := h.phaseService.Delete(c.Request.Context(), user, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
