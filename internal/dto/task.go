package dto

import (
	"sort"
	"time"

	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/scoring"
	"github.com/yukikurage/jobsworth/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TodoDTO represents a todo item of a task
type TodoDTO struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Position    int        `json:"position"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CustomerDTO represents a customer a task is done for
type CustomerDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// PropertyValueDTO represents the value a task holds for one property
type PropertyValueDTO struct {
	PropertyID      uint64 `json:"property_id"`
	PropertyValueID uint64 `json:"property_value_id"`
	Value           string `json:"value"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID               uint64             `json:"id"`
	TaskNum          int                `json:"task_num"`
	IssueNum         string             `json:"issue_num"`
	CompanyID        uint64             `json:"company_id"`
	ProjectID        uint64             `json:"project_id"`
	MilestoneID      *uint64            `json:"milestone_id"`
	CreatorID        *uint64            `json:"creator_id"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Status           models.TaskStatus  `json:"status"`
	StatusType       string             `json:"status_type"`
	StatusName       string             `json:"status_name"`
	Resolved         bool               `json:"resolved"`
	Done             bool               `json:"done"`
	Overdue          bool               `json:"overdue"`
	Snoozed          bool               `json:"snoozed"`
	Reasons          []scoring.Reason   `json:"reasons,omitempty"`
	Priority         int                `json:"priority"`
	Severity         int                `json:"severity"`
	CompletedAt      *time.Time         `json:"completed_at"`
	DueAt            *time.Time         `json:"due_at"`
	HideUntil        *time.Time         `json:"hide_until"`
	WaitForCustomer  bool               `json:"wait_for_customer"`
	Weight           *int               `json:"weight"`
	WeightAdjustment int                `json:"weight_adjustment"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Milestone        *MilestoneDTO      `json:"milestone,omitempty"`
	Todos            []TodoDTO          `json:"todos,omitempty"`
	Customers        []CustomerDTO      `json:"customers,omitempty"`
	PropertyValues   []PropertyValueDTO `json:"property_values,omitempty"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID          uint64            `json:"id"`
	TaskNum     int               `json:"task_num"`
	ProjectID   uint64            `json:"project_id"`
	MilestoneID *uint64           `json:"milestone_id"`
	Name        string            `json:"name"`
	Status      models.TaskStatus `json:"status"`
	StatusName  string            `json:"status_name"`
	DueAt       *time.Time        `json:"due_at"`
	Weight      *int              `json:"weight"`
	Snoozed     bool              `json:"snoozed"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskListItemDTO        `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// RecipientsResponse lists the users a notification about a task reaches
type RecipientsResponse struct {
	TaskID     uint64    `json:"task_id"`
	Recipients []UserDTO `json:"recipients"`
}

// UserWorkDTO is the time one user logged on a task
type UserWorkDTO struct {
	UserID  uint64 `json:"user_id"`
	Minutes int    `json:"minutes"`
}

// WorkResponse summarizes the work logged on a task
type WorkResponse struct {
	TaskID   uint64        `json:"task_id"`
	WorkedOn bool          `json:"worked_on"`
	Users    []UserWorkDTO `json:"users"`
}

// UnreadResponse reports the unread state of a task for the current user
type UnreadResponse struct {
	TaskID uint64 `json:"task_id"`
	Unread bool   `json:"unread"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, user := range users {
		dtos[i] = ToUserDTO(user)
	}
	return dtos
}

// ToTaskDTO converts a Task model to TaskDTO. The gate decides the snoozed
// flag and its reasons; now decides overdue.
func ToTaskDTO(task models.Task, gate scoring.GateResult, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:               task.ID,
		TaskNum:          task.TaskNum,
		IssueNum:         task.IssueNum(),
		CompanyID:        task.CompanyID,
		ProjectID:        task.ProjectID,
		MilestoneID:      task.MilestoneID,
		CreatorID:        task.CreatorID,
		Name:             task.Name,
		Description:      task.Description,
		Status:           task.Status,
		StatusType:       task.StatusType(),
		StatusName:       task.StatusName(),
		Resolved:         task.Resolved(),
		Done:             task.Done(),
		Overdue:          task.Overdue(now),
		Snoozed:          !gate.Scoreable,
		Reasons:          gate.Reasons,
		Priority:         task.Priority,
		Severity:         task.Severity,
		CompletedAt:      task.CompletedAt,
		DueAt:            task.DueAt,
		HideUntil:        task.HideUntil,
		WaitForCustomer:  task.WaitForCustomer,
		Weight:           task.Weight,
		WeightAdjustment: task.WeightAdjustment,
		CreatedAt:        task.CreatedAt,
		UpdatedAt:        task.UpdatedAt,
	}

	// Include milestone if preloaded
	if task.Milestone != nil {
		milestone := ToMilestoneDTO(*task.Milestone)
		dto.Milestone = &milestone
	}

	if len(task.Todos) > 0 {
		dto.Todos = make([]TodoDTO, len(task.Todos))
		for i, todo := range task.Todos {
			dto.Todos[i] = TodoDTO{
				ID:          todo.ID,
				Name:        todo.Name,
				Position:    todo.Position,
				CompletedAt: todo.CompletedAt,
			}
		}
	}

	if len(task.Customers) > 0 {
		dto.Customers = make([]CustomerDTO, len(task.Customers))
		for i, tc := range task.Customers {
			dto.Customers[i] = CustomerDTO{ID: tc.CustomerID, Name: tc.Customer.Name}
		}
	}

	if len(task.PropertyValues) > 0 {
		dto.PropertyValues = make([]PropertyValueDTO, len(task.PropertyValues))
		for i, pv := range task.PropertyValues {
			dto.PropertyValues[i] = PropertyValueDTO{
				PropertyID:      pv.PropertyID,
				PropertyValueID: pv.PropertyValueID,
				Value:           pv.PropertyValue.Value,
			}
		}
	}

	return dto
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO. Snoozed reads
// the stored weight, so a hide_until that has passed keeps the task snoozed
// here until the next sweep rescores it; ToTaskDTO evaluates the gate live.
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	return TaskListItemDTO{
		ID:          task.ID,
		TaskNum:     task.TaskNum,
		ProjectID:   task.ProjectID,
		MilestoneID: task.MilestoneID,
		Name:        task.Name,
		Status:      task.Status,
		StatusName:  task.StatusName(),
		DueAt:       task.DueAt,
		Weight:      task.Weight,
		Snoozed:     task.Weight == nil,
		CreatedAt:   task.CreatedAt,
	}
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, totalCount int64) TaskListResponse {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: params.Response(totalCount),
	}
}

// ToWorkResponse converts per-user minutes into a response sorted by user id
func ToWorkResponse(taskID uint64, workedOn bool, work map[uint64]int) WorkResponse {
	users := make([]UserWorkDTO, 0, len(work))
	for userID, minutes := range work {
		users = append(users, UserWorkDTO{UserID: userID, Minutes: minutes})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })

	return WorkResponse{
		TaskID:   taskID,
		WorkedOn: workedOn,
		Users:    users,
	}
}
