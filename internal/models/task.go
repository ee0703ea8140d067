package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TaskKind discriminates regular tasks from templates stored in the same table.
type TaskKind string

const (
	TaskKindTask TaskKind = "Task"
)

type Task struct {
	ID               uint64         `gorm:"primarykey" json:"id"`
	Kind             TaskKind       `gorm:"column:type;type:varchar(20);not null;default:'Task';index:idx_tasks_kind_num_company,priority:1" json:"type"`
	TaskNum          int            `gorm:"not null;default:0;index:idx_tasks_kind_num_company,priority:2" json:"task_num"`
	CompanyID        uint64         `gorm:"not null;index;index:idx_tasks_kind_num_company,priority:3" json:"company_id"`
	ProjectID        uint64         `gorm:"not null;index" json:"project_id"`
	MilestoneID      *uint64        `gorm:"index" json:"milestone_id"`
	CreatorID        *uint64        `json:"creator_id"`
	Name             string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Description      string         `gorm:"type:text" json:"description"`
	Status           TaskStatus     `gorm:"not null;default:0;index" json:"status" validate:"gte=0,lte=4"`
	Priority         int            `gorm:"not null;default:0" json:"priority"`
	Severity         int            `gorm:"not null;default:0" json:"severity"`
	CompletedAt      *time.Time     `json:"completed_at"`
	DueAt            *time.Time     `gorm:"index" json:"due_at"`
	HideUntil        *time.Time     `gorm:"index" json:"hide_until"`
	WaitForCustomer  bool           `gorm:"not null" json:"wait_for_customer"`
	Weight           *int           `json:"weight"`
	WeightAdjustment int            `gorm:"not null;default:0" json:"weight_adjustment"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project        Project             `gorm:"foreignKey:ProjectID" json:"-"`
	Milestone      *Milestone          `gorm:"foreignKey:MilestoneID" json:"milestone,omitempty"`
	Dependencies   []*Task             `gorm:"many2many:dependencies;joinForeignKey:TaskID;joinReferences:DependencyID" json:"dependencies,omitempty"`
	Users          []TaskUser          `gorm:"foreignKey:TaskID" json:"-"`
	WorkLogs       []WorkLog           `gorm:"foreignKey:TaskID" json:"-"`
	Sheets         []Sheet             `gorm:"foreignKey:TaskID" json:"-"`
	Todos          []Todo              `gorm:"foreignKey:TaskID" json:"todos,omitempty"`
	Customers      []TaskCustomer      `gorm:"foreignKey:TaskID" json:"customers,omitempty"`
	PropertyValues []TaskPropertyValue `gorm:"foreignKey:TaskID" json:"property_values,omitempty"`
}

// Resolved is true for every status other than open.
func (t *Task) Resolved() bool {
	return t.Status != TaskStatusOpen
}

// Done requires both a resolved status and a completion time.
func (t *Task) Done() bool {
	return t.Resolved() && t.CompletedAt != nil
}

func (t *Task) IsOpen() bool      { return t.Status == TaskStatusOpen }
func (t *Task) IsClosed() bool    { return t.Status == TaskStatusClosed }
func (t *Task) IsWontFix() bool   { return t.Status == TaskStatusWontFix }
func (t *Task) IsInvalid() bool   { return t.Status == TaskStatusInvalid }
func (t *Task) IsDuplicate() bool { return t.Status == TaskStatusDuplicate }

// StatusType returns the display name of the task status.
func (t *Task) StatusType() string {
	return t.Status.String()
}

// Overdue reports whether the due date lies before now. Tasks without a due
// date are never overdue.
func (t *Task) Overdue(now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now)
}

// Hidden reports whether hide_until still lies in the future.
func (t *Task) Hidden(now time.Time) bool {
	return t.HideUntil != nil && t.HideUntil.After(now)
}

// IssueNum renders the task number, struck through once resolved.
func (t *Task) IssueNum() string {
	num := fmt.Sprintf("#%d", t.TaskNum)
	if t.Resolved() {
		return "<strike>" + num + "</strike>"
	}
	return num
}

// StatusName combines the issue number with the status display name.
func (t *Task) StatusName() string {
	return t.IssueNum() + " " + t.StatusType()
}

// BeforeSave stores timestamps in UTC; sqlite compares them as text.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	t.CompletedAt = utcPtr(t.CompletedAt)
	t.DueAt = utcPtr(t.DueAt)
	t.HideUntil = utcPtr(t.HideUntil)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
