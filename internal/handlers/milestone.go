package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/jobsworth/internal/dto"
	apierrors "github.com/yukikurage/jobsworth/internal/errors"
	"github.com/yukikurage/jobsworth/internal/middleware"
	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/services"
)

type MilestoneHandler struct {
	milestones *services.MilestoneService
	logger     *slog.Logger
}

func NewMilestoneHandler(milestones *services.MilestoneService, logger *slog.Logger) *MilestoneHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MilestoneHandler{
		milestones: milestones,
		logger:     logger,
	}
}

// GetMilestone returns the milestone loaded by RequireMilestoneAccess
func (h *MilestoneHandler) GetMilestone(c *gin.Context) {
	milestone, ok := middleware.GetMilestone(c)
	if !ok {
		apierrors.InternalError(c, "Milestone not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToMilestoneDTO(*milestone))
}

// UpdateStatus changes the milestone status and rescores its tasks
func (h *MilestoneHandler) UpdateStatus(c *gin.Context) {
	milestone, ok := middleware.GetMilestone(c)
	if !ok {
		apierrors.InternalError(c, "Milestone not found in context")
		return
	}

	type UpdateStatusRequest struct {
		Status models.MilestoneStatus `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.milestones.UpdateStatus(milestone.ID, req.Status)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update milestone")
		return
	}

	c.JSON(http.StatusOK, dto.ToMilestoneDTO(*updated))
}
