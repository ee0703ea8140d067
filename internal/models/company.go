package models

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Projects   []Project  `gorm:"foreignKey:CompanyID" json:"projects,omitempty"`
	Properties []Property `gorm:"foreignKey:CompanyID" json:"properties,omitempty"`
	Customers  []Customer `gorm:"foreignKey:CompanyID" json:"customers,omitempty"`
}

type Customer struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	CompanyID uint64         `gorm:"not null;index" json:"company_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TaskCustomer links a task to a customer it is done for.
type TaskCustomer struct {
	TaskID     uint64    `gorm:"primarykey" json:"task_id"`
	CustomerID uint64    `gorm:"primarykey" json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Customer Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}
