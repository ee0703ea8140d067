package dto

import (
	"time"

	"github.com/yukikurage/jobsworth/internal/models"
)

// MilestoneDTO represents a milestone in API responses
type MilestoneDTO struct {
	ID          uint64                 `json:"id"`
	ProjectID   uint64                 `json:"project_id"`
	Name        string                 `json:"name"`
	Status      models.MilestoneStatus `json:"status"`
	CompletedAt *time.Time             `json:"completed_at"`
}

// ToMilestoneDTO converts a Milestone model to MilestoneDTO
func ToMilestoneDTO(m models.Milestone) MilestoneDTO {
	return MilestoneDTO{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Name:        m.Name,
		Status:      m.Status,
		CompletedAt: m.CompletedAt,
	}
}
