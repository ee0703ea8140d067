package repository

import (
	"context"
	"time"

	"github.com/yukikurage/jobsworth/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create assigns the next per-company task number and inserts the task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update saves the task columns, leaving associations untouched
	Update(task *models.Task) error

	// UpdateWeight stores a recomputed weight without touching other columns
	UpdateWeight(taskID uint64, weight *int) error

	// Delete soft deletes a task and drops its join rows
	Delete(id uint64) error

	// ListByIDs loads tasks by ID, skipping missing ones
	ListByIDs(ids []uint64) ([]models.Task, error)

	// ListByMilestone lists the tasks scheduled in a milestone
	ListByMilestone(milestoneID uint64) ([]models.Task, error)

	// Dependencies returns the tasks blocking taskID, ordered by id
	Dependencies(taskID uint64) ([]*models.Task, error)

	// DependentIDs returns the ids of tasks blocked by taskID
	DependentIDs(taskID uint64) ([]uint64, error)

	// AddDependency records that taskID depends on dependencyID
	AddDependency(taskID, dependencyID uint64) error

	// RemoveDependency drops a dependency
	RemoveDependency(taskID, dependencyID uint64) error

	// AddUser gives a user a watcher or owner marker on a task
	AddUser(taskID, userID uint64, role models.TaskUserRole) error

	// TaskUsers returns the watcher and owner markers with users preloaded
	TaskUsers(taskID uint64) ([]models.TaskUser, error)

	// MarkUnread flags every marker of the task unread, except those of exceptUserID
	MarkUnread(taskID uint64, exceptUserID *uint64) (int64, error)

	// MarkRead clears the unread flag on a user's markers
	MarkRead(taskID, userID uint64) error

	// UserMarkers returns the markers one user holds on a task
	UserMarkers(taskID, userID uint64) ([]models.TaskUser, error)

	// WorkByUser sums work log minutes per user, omitting zero totals
	WorkByUser(taskID uint64) (map[uint64]int, error)

	// HasSheets reports whether any timer is open on the task
	HasSheets(taskID uint64) (bool, error)

	// ReplacePropertyValues swaps every property value on the task for values
	ReplacePropertyValues(taskID uint64, values map[uint64]uint64) error

	// SetPropertyValue sets one property value, clearing it when valueID is nil
	SetPropertyValue(taskID, propertyID uint64, valueID *uint64) error

	// PropertyValues returns the task property values with values preloaded
	PropertyValues(taskID uint64) ([]models.TaskPropertyValue, error)

	// ReplaceCustomers swaps the customer set of a task
	ReplaceCustomers(taskID uint64, customerIDs []uint64) error

	// ExpireHideUntil clears hide_until on every task whose date has passed and
	// returns the ids it touched
	ExpireHideUntil(ctx context.Context, now time.Time) ([]uint64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectIDs   []uint64
	Status       *models.TaskStatus
	MilestoneID  *uint64
	ScoredOnly   bool
	SortByWeight bool
	Page         int
	PageSize     int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// CountByIDs counts how many of the given users exist in the company
	CountByIDs(userIDs []uint64, companyID uint64) (int64, error)

	// ProjectIDs lists the projects a user holds a permission on
	ProjectIDs(userID uint64) ([]uint64, error)

	// HasProjectPermission reports whether the user may access the project
	HasProjectPermission(userID, projectID uint64) (bool, error)
}

// CompanyRepository defines the interface for company scoped lookups
type CompanyRepository interface {
	// FindByID finds a company by ID
	FindByID(id uint64) (*models.Company, error)

	// MandatoryProperties lists the properties every task of the company must set
	MandatoryProperties(companyID uint64) ([]models.Property, error)

	// CountPropertyValues counts how many value ids belong to the property
	CountPropertyValues(propertyID uint64, valueIDs []uint64) (int64, error)

	// FindProperty finds a property of the company
	FindProperty(companyID, propertyID uint64) (*models.Property, error)

	// CountCustomers counts how many of the customers belong to the company
	CountCustomers(companyID uint64, customerIDs []uint64) (int64, error)
}

// MilestoneRepository defines the interface for milestone data access
type MilestoneRepository interface {
	// FindByID finds a milestone by ID
	FindByID(id uint64) (*models.Milestone, error)

	// Update updates a milestone
	Update(milestone *models.Milestone) error
}
