package models

import (
	"time"

	"gorm.io/gorm"
)

// User flags have no column defaults: gorm skips zero values on insert, so a
// default of true would make false impossible to store on create.
type User struct {
	ID                      uint64         `gorm:"primarykey" json:"id"`
	CompanyID               uint64         `gorm:"not null;index" json:"company_id"`
	Name                    string         `gorm:"type:varchar(255);not null" json:"name"`
	Email                   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Admin                   bool           `gorm:"not null" json:"admin"`
	Active                  bool           `gorm:"not null" json:"active"`
	ReceiveNotifications    bool           `gorm:"not null" json:"receive_notifications"`
	ReceiveOwnNotifications bool           `gorm:"not null" json:"receive_own_notifications"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	TaskUsers   []TaskUser          `gorm:"foreignKey:UserID" json:"-"`
	Permissions []ProjectPermission `gorm:"foreignKey:UserID" json:"-"`
}
