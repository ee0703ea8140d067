package repository

import (
	"github.com/yukikurage/jobsworth/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMilestoneRepository is a GORM implementation of MilestoneRepository
type GormMilestoneRepository struct {
	db *gorm.DB
}

// NewMilestoneRepository creates a new MilestoneRepository
func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &GormMilestoneRepository{db: db}
}

// FindByID finds a milestone by ID
func (r *GormMilestoneRepository) FindByID(id uint64) (*models.Milestone, error) {
	var milestone models.Milestone
	if err := r.db.First(&milestone, id).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

// Update updates a milestone
func (r *GormMilestoneRepository) Update(milestone *models.Milestone) error {
	return r.db.Omit(clause.Associations).Save(milestone).Error
}
