package models

import "time"

// WorkLog records time spent on a task. Duration is in minutes.
type WorkLog struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Duration  int       `gorm:"not null;default:0" json:"duration"`
	StartedAt time.Time `json:"started_at"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Sheet is a running timer a user has open on a task.
type Sheet struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	ProjectID uint64    `gorm:"not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Todo struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	TaskID      uint64     `gorm:"not null;index" json:"task_id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Position    int        `gorm:"not null;default:0" json:"position"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
