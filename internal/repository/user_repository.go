package repository

import (
	"github.com/yukikurage/jobsworth/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CountByIDs counts how many of the given users exist in the company
func (r *GormUserRepository) CountByIDs(userIDs []uint64, companyID uint64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := r.db.Model(&models.User{}).
		Where("id IN ? AND company_id = ?", userIDs, companyID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ProjectIDs lists the projects a user holds a permission on. Completed
// projects are included.
func (r *GormUserRepository) ProjectIDs(userID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.ProjectPermission{}).
		Where("user_id = ?", userID).
		Order("project_id").
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// HasProjectPermission reports whether the user may access the project
func (r *GormUserRepository) HasProjectPermission(userID, projectID uint64) (bool, error) {
	var count int64
	if err := r.db.Model(&models.ProjectPermission{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
