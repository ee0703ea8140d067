package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/repository"
	"gorm.io/gorm"
)

var ErrInvalidMilestoneStatus = errors.New("invalid milestone status")

// MilestoneService handles milestone status changes
type MilestoneService struct {
	milestones repository.MilestoneRepository
	tasks      *TaskService
	logger     *slog.Logger
	now        func() time.Time
}

// NewMilestoneService creates a new MilestoneService. Task rescoring goes
// through tasks so weights and events stay consistent.
func NewMilestoneService(milestones repository.MilestoneRepository, tasks *TaskService) *MilestoneService {
	return &MilestoneService{
		milestones: milestones,
		tasks:      tasks,
		logger:     tasks.logger,
		now:        tasks.now,
	}
}

// GetMilestone finds a milestone by ID
func (s *MilestoneService) GetMilestone(milestoneID uint64) (*models.Milestone, error) {
	milestone, err := s.milestones.FindByID(milestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("failed to find milestone: %w", err)
	}
	return milestone, nil
}

// UpdateStatus stores the new status and rescores every task of the
// milestone: entering planning gates them, leaving it releases them.
func (s *MilestoneService) UpdateStatus(milestoneID uint64, status models.MilestoneStatus) (*models.Milestone, error) {
	if !status.Valid() {
		return nil, ErrInvalidMilestoneStatus
	}

	milestone, err := s.GetMilestone(milestoneID)
	if err != nil {
		return nil, err
	}

	if milestone.Status == status {
		return milestone, nil
	}

	milestone.Status = status
	if milestone.Closed() {
		now := s.now()
		milestone.CompletedAt = &now
	} else {
		milestone.CompletedAt = nil
	}

	if err := s.milestones.Update(milestone); err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}

	if err := s.tasks.rescoreMilestone(milestone); err != nil {
		return nil, err
	}
	s.logger.Info("milestone status changed", "milestone_id", milestone.ID, "status", milestone.Status)

	return milestone, nil
}

// CanAccess reports whether the user holds a permission on the milestone project
func (s *MilestoneService) CanAccess(userID uint64, milestone *models.Milestone) (bool, error) {
	ok, err := s.tasks.repos.Users.HasProjectPermission(userID, milestone.ProjectID)
	if err != nil {
		return false, fmt.Errorf("failed to check project permission: %w", err)
	}
	return ok, nil
}
