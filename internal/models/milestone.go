package models

import (
	"time"

	"gorm.io/gorm"
)

type MilestoneStatus string

const (
	MilestoneStatusPlanning MilestoneStatus = "planning"
	MilestoneStatusOpen     MilestoneStatus = "open"
	MilestoneStatusClosed   MilestoneStatus = "closed"
)

// Valid reports whether s is a known milestone status.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusPlanning, MilestoneStatusOpen, MilestoneStatusClosed:
		return true
	}
	return false
}

type Milestone struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	ProjectID   uint64          `gorm:"not null;index" json:"project_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Status      MilestoneStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	CompletedAt *time.Time      `json:"completed_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
	Tasks   []Task  `gorm:"foreignKey:MilestoneID" json:"-"`
}

func (m *Milestone) Planning() bool {
	return m.Status == MilestoneStatusPlanning
}

func (m *Milestone) Closed() bool {
	return m.Status == MilestoneStatusClosed
}
