package models

import "time"

type TaskUserRole string

const (
	TaskUserRoleWatcher TaskUserRole = "watcher"
	TaskUserRoleOwner   TaskUserRole = "owner"
)

// TaskUser is the notification marker a watcher or owner holds on a task.
type TaskUser struct {
	ID        uint64       `gorm:"primarykey" json:"id"`
	TaskID    uint64       `gorm:"not null;uniqueIndex:idx_task_users_task_user_role" json:"task_id"`
	UserID    uint64       `gorm:"not null;uniqueIndex:idx_task_users_task_user_role;index" json:"user_id"`
	Role      TaskUserRole `gorm:"type:varchar(20);not null;uniqueIndex:idx_task_users_task_user_role" json:"role"`
	Unread    bool         `gorm:"not null" json:"unread"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
