package models

import "time"

// Property is a company defined task attribute such as "Priority" or "Type".
type Property struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	CompanyID uint64    `gorm:"not null;index" json:"company_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Mandatory bool      `gorm:"not null" json:"mandatory"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Values []PropertyValue `gorm:"foreignKey:PropertyID" json:"values,omitempty"`
}

type PropertyValue struct {
	ID         uint64 `gorm:"primarykey" json:"id"`
	PropertyID uint64 `gorm:"not null;index" json:"property_id"`
	Value      string `gorm:"type:varchar(255);not null" json:"value"`
	Position   int    `gorm:"not null;default:0" json:"position"`
}

// TaskPropertyValue holds the value chosen for one property on one task.
type TaskPropertyValue struct {
	ID              uint64 `gorm:"primarykey" json:"id"`
	TaskID          uint64 `gorm:"not null;uniqueIndex:idx_task_property" json:"task_id"`
	PropertyID      uint64 `gorm:"not null;uniqueIndex:idx_task_property" json:"property_id"`
	PropertyValueID uint64 `gorm:"not null" json:"property_value_id"`

	// Relations
	PropertyValue PropertyValue `gorm:"foreignKey:PropertyValueID" json:"property_value,omitempty"`
}
