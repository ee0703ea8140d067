package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	CompanyID   uint64         `gorm:"not null;index" json:"company_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Milestones  []Milestone         `gorm:"foreignKey:ProjectID" json:"milestones,omitempty"`
	Permissions []ProjectPermission `gorm:"foreignKey:ProjectID" json:"-"`
}

// Complete reports whether the project has been closed.
func (p *Project) Complete() bool {
	return p.CompletedAt != nil
}

// ProjectPermission grants a user access to the tasks of a project.
type ProjectPermission struct {
	ProjectID uint64    `gorm:"primarykey" json:"project_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
