package repository

import (
	"github.com/yukikurage/jobsworth/internal/models"
	"gorm.io/gorm"
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(id uint64) (*models.Company, error) {
	var company models.Company
	if err := r.db.First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// MandatoryProperties lists the properties every task of the company must set
func (r *GormCompanyRepository) MandatoryProperties(companyID uint64) ([]models.Property, error) {
	var properties []models.Property
	if err := r.db.Where("company_id = ? AND mandatory = ?", companyID, true).
		Order("id").
		Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

// CountPropertyValues counts how many value ids belong to the property
func (r *GormCompanyRepository) CountPropertyValues(propertyID uint64, valueIDs []uint64) (int64, error) {
	if len(valueIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := r.db.Model(&models.PropertyValue{}).
		Where("property_id = ? AND id IN ?", propertyID, valueIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindProperty finds a property of the company with its values
func (r *GormCompanyRepository) FindProperty(companyID, propertyID uint64) (*models.Property, error) {
	var property models.Property
	if err := r.db.Preload("Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, id")
	}).
		Where("company_id = ?", companyID).
		First(&property, propertyID).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// CountCustomers counts how many of the customers belong to the company
func (r *GormCompanyRepository) CountCustomers(companyID uint64, customerIDs []uint64) (int64, error) {
	if len(customerIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := r.db.Model(&models.Customer{}).
		Where("company_id = ? AND id IN ?", companyID, customerIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
