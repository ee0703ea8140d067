package handlers

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/jobsworth/internal/dto"
	apierrors "github.com/yukikurage/jobsworth/internal/errors"
	"github.com/yukikurage/jobsworth/internal/middleware"
	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/services"
	"github.com/yukikurage/jobsworth/internal/utils"
)

type TaskHandler struct {
	tasks  *services.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *services.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger,
	}
}

// ListTasks returns the tasks of every project the current user may access
// Filters: status, milestone_id, scored_only; sort=weight orders by weight
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	input := services.ListTasksInput{
		UserID:       userID,
		ScoredOnly:   c.Query("scored_only") == "true",
		SortByWeight: c.Query("sort") == "weight",
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := parseStatus(statusStr)
		if err != nil {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}

	if milestoneStr := c.Query("milestone_id"); milestoneStr != "" {
		milestoneID, err := strconv.ParseUint(milestoneStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid milestone_id")
			return
		}
		input.MilestoneID = &milestoneID
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.tasks.AccessibleTasks(input)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	h.respondTask(c, http.StatusOK, task)
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	ProjectID        uint64            `json:"project_id" binding:"required"`
	MilestoneID      *uint64           `json:"milestone_id"`
	Name             string            `json:"name" binding:"required"`
	Description      string            `json:"description"`
	Status           any               `json:"status"`
	Priority         int               `json:"priority"`
	Severity         int               `json:"severity"`
	DueAt            *time.Time        `json:"due_at"`
	HideUntil        *time.Time        `json:"hide_until"`
	WaitForCustomer  bool              `json:"wait_for_customer"`
	WeightAdjustment int               `json:"weight_adjustment"`
	Todos            []string          `json:"todos"`
	Properties       map[uint64]uint64 `json:"properties"`
	CustomerIDs      []uint64          `json:"customer_ids"`
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		CreatorID:        userID,
		ProjectID:        req.ProjectID,
		MilestoneID:      req.MilestoneID,
		Name:             req.Name,
		Description:      req.Description,
		Priority:         req.Priority,
		Severity:         req.Severity,
		DueAt:            utcTime(req.DueAt),
		HideUntil:        utcTime(req.HideUntil),
		WaitForCustomer:  req.WaitForCustomer,
		WeightAdjustment: req.WeightAdjustment,
		Todos:            req.Todos,
		Properties:       req.Properties,
		CustomerIDs:      req.CustomerIDs,
	}
	if req.Status != nil {
		status, err := parseStatus(req.Status)
		if err != nil {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}

	task, err := h.tasks.CreateTask(input)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create task")
		return
	}

	h.respondTask(c, http.StatusCreated, task)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseTaskPatch(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.tasks.UpdateTask(task.ID, input)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update task")
		return
	}

	h.respondTask(c, http.StatusOK, updated)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.tasks.DeleteTask(task.ID); err != nil {
		respondError(c, h.logger, err, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// ListDependencies returns the tasks blocking the task
func (h *TaskHandler) ListDependencies(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	deps, err := h.tasks.Dependencies(task.ID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load dependencies")
		return
	}

	items := make([]dto.TaskListItemDTO, len(deps))
	for i, dep := range deps {
		items[i] = dto.ToTaskListItemDTO(*dep)
	}
	c.JSON(http.StatusOK, gin.H{"dependencies": items})
}

// AddDependency makes the task wait on another task
func (h *TaskHandler) AddDependency(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type AddDependencyRequest struct {
		DependencyID uint64 `json:"dependency_id" binding:"required"`
	}

	var req AddDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.tasks.AddDependency(task.ID, req.DependencyID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to add dependency")
		return
	}

	h.respondTask(c, http.StatusOK, updated)
}

// RemoveDependency drops one dependency of the task
func (h *TaskHandler) RemoveDependency(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	dependencyID, err := strconv.ParseUint(c.Param("dependency_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid dependency ID")
		return
	}

	updated, err := h.tasks.RemoveDependency(task.ID, dependencyID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to remove dependency")
		return
	}

	h.respondTask(c, http.StatusOK, updated)
}

type userRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

// AddWatcher gives a user a watcher marker on the task
func (h *TaskHandler) AddWatcher(c *gin.Context) {
	h.addUser(c, h.tasks.AddWatcher, "Watcher added successfully")
}

// AddOwner gives a user an owner marker on the task
func (h *TaskHandler) AddOwner(c *gin.Context) {
	h.addUser(c, h.tasks.AddOwner, "Owner added successfully")
}

func (h *TaskHandler) addUser(c *gin.Context, add func(taskID, userID uint64) error, message string) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := add(task.ID, req.UserID); err != nil {
		respondError(c, h.logger, err, "Failed to add user to task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Recipients lists the users a notification about the task would reach.
// exclude_self=true leaves the current user out.
func (h *TaskHandler) Recipients(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var excluding *uint64
	if c.Query("exclude_self") == "true" {
		userID, exists := middleware.GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}
		excluding = &userID
	}

	users, err := h.tasks.Recipients(task.ID, excluding)
	if err != nil {
		respondError(c, h.logger, err, "Failed to resolve recipients")
		return
	}

	c.JSON(http.StatusOK, dto.RecipientsResponse{
		TaskID:     task.ID,
		Recipients: dto.ToUserDTOs(users),
	})
}

// Notify marks the task unread and resolves the recipients, leaving out the
// current user
func (h *TaskHandler) Notify(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	users, err := h.tasks.Notify(task.ID, &userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to notify")
		return
	}

	c.JSON(http.StatusOK, dto.RecipientsResponse{
		TaskID:     task.ID,
		Recipients: dto.ToUserDTOs(users),
	})
}

// Unread reports whether the current user has unread changes on the task
func (h *TaskHandler) Unread(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	unread, err := h.tasks.Unread(task.ID, userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load unread state")
		return
	}

	c.JSON(http.StatusOK, dto.UnreadResponse{TaskID: task.ID, Unread: unread})
}

// MarkAsRead clears the current user's unread markers
func (h *TaskHandler) MarkAsRead(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.tasks.MarkAsRead(task.ID, userID); err != nil {
		respondError(c, h.logger, err, "Failed to mark task read")
		return
	}

	c.JSON(http.StatusOK, dto.UnreadResponse{TaskID: task.ID, Unread: false})
}

// Work returns the minutes each user logged on the task
func (h *TaskHandler) Work(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	work, err := h.tasks.UserWork(task.ID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load work")
		return
	}
	workedOn, err := h.tasks.WorkedOn(task.ID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load work")
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkResponse(task.ID, workedOn, work))
}

// ReplaceProperties swaps every property value of the task
func (h *TaskHandler) ReplaceProperties(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type PropertiesRequest struct {
		Properties map[uint64]uint64 `json:"properties"`
	}

	var req PropertiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.tasks.SetProperties(task.ID, req.Properties); err != nil {
		respondError(c, h.logger, err, "Failed to set properties")
		return
	}

	h.respondReloaded(c, task.ID)
}

// GetPropertyValue returns the value the task holds for one property
func (h *TaskHandler) GetPropertyValue(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	propertyID, err := strconv.ParseUint(c.Param("property_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid property ID")
		return
	}

	value, err := h.tasks.PropertyValue(task.ID, propertyID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load property value")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id": propertyID,
		"value":       value,
	})
}

// SetPropertyValue sets one property of the task; a null value_id clears it
func (h *TaskHandler) SetPropertyValue(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	propertyID, err := strconv.ParseUint(c.Param("property_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid property ID")
		return
	}

	type PropertyValueRequest struct {
		ValueID *uint64 `json:"value_id"`
	}

	var req PropertyValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.tasks.SetPropertyValue(task.ID, propertyID, req.ValueID); err != nil {
		respondError(c, h.logger, err, "Failed to set property value")
		return
	}

	h.respondReloaded(c, task.ID)
}

// ReplaceCustomers swaps the customers the task is done for
func (h *TaskHandler) ReplaceCustomers(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type CustomersRequest struct {
		CustomerIDs []uint64 `json:"customer_ids"`
	}

	var req CustomersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.tasks.ReplaceCustomers(task.ID, req.CustomerIDs); err != nil {
		respondError(c, h.logger, err, "Failed to set customers")
		return
	}

	h.respondReloaded(c, task.ID)
}

func (h *TaskHandler) respondReloaded(c *gin.Context, taskID uint64) {
	task, err := h.tasks.GetTask(taskID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to reload task")
		return
	}
	h.respondTask(c, http.StatusOK, task)
}

func (h *TaskHandler) respondTask(c *gin.Context, status int, task *models.Task) {
	gate, err := h.tasks.Gate(task)
	if err != nil {
		respondError(c, h.logger, err, "Failed to evaluate task")
		return
	}
	c.JSON(status, dto.ToTaskDTO(*task, gate, h.tasks.Now()))
}

// parseStatus accepts a status name or its integer value
func parseStatus(v any) (models.TaskStatus, error) {
	switch s := v.(type) {
	case string:
		if n, err := strconv.Atoi(s); err == nil {
			return checkedStatus(n)
		}
		return models.ParseTaskStatus(s)
	case float64:
		if s != math.Trunc(s) {
			return models.TaskStatusOpen, fmt.Errorf("invalid status %v", s)
		}
		return checkedStatus(int(s))
	default:
		return models.TaskStatusOpen, fmt.Errorf("invalid status %v", v)
	}
}

func checkedStatus(n int) (models.TaskStatus, error) {
	status := models.TaskStatus(n)
	if !status.Valid() {
		return models.TaskStatusOpen, fmt.Errorf("invalid status %d", n)
	}
	return status, nil
}

// parseTaskPatch turns a raw JSON object into an update. A null due_at,
// hide_until or milestone_id clears the field.
func parseTaskPatch(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if v, ok := raw["name"]; ok {
		s, ok := v.(string)
		if !ok {
			return input, fmt.Errorf("name must be a string")
		}
		input.Name = &s
	}
	if v, ok := raw["description"]; ok {
		s, ok := v.(string)
		if !ok {
			return input, fmt.Errorf("description must be a string")
		}
		input.Description = &s
	}
	if v, ok := raw["status"]; ok {
		status, err := parseStatus(v)
		if err != nil {
			return input, err
		}
		input.Status = &status
	}
	if v, ok := raw["completed_at"]; ok && v != nil {
		t, err := parseTime("completed_at", v)
		if err != nil {
			return input, err
		}
		input.CompletedAt = &t
	}
	if v, ok := raw["priority"]; ok {
		n, err := parseInt("priority", v)
		if err != nil {
			return input, err
		}
		input.Priority = &n
	}
	if v, ok := raw["severity"]; ok {
		n, err := parseInt("severity", v)
		if err != nil {
			return input, err
		}
		input.Severity = &n
	}
	if v, ok := raw["weight_adjustment"]; ok {
		n, err := parseInt("weight_adjustment", v)
		if err != nil {
			return input, err
		}
		input.WeightAdjustment = &n
	}
	if v, ok := raw["due_at"]; ok {
		if v == nil {
			input.ClearDueAt = true
		} else {
			t, err := parseTime("due_at", v)
			if err != nil {
				return input, err
			}
			input.DueAt = &t
		}
	}
	if v, ok := raw["hide_until"]; ok {
		if v == nil {
			input.ClearHideUntil = true
		} else {
			t, err := parseTime("hide_until", v)
			if err != nil {
				return input, err
			}
			input.HideUntil = &t
		}
	}
	if v, ok := raw["wait_for_customer"]; ok {
		b, ok := v.(bool)
		if !ok {
			return input, fmt.Errorf("wait_for_customer must be a boolean")
		}
		input.WaitForCustomer = &b
	}
	if v, ok := raw["milestone_id"]; ok {
		if v == nil {
			input.ClearMilestone = true
		} else {
			n, err := parseInt("milestone_id", v)
			if err != nil || n <= 0 {
				return input, fmt.Errorf("milestone_id must be a positive integer")
			}
			id := uint64(n)
			input.MilestoneID = &id
		}
	}

	return input, nil
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func parseInt(field string, v any) (int, error) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return int(f), nil
}

func parseTime(field string, v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 time", field)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 time", field)
	}
	return t.UTC(), nil
}
