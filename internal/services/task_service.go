package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/jobsworth/internal/events"
	"github.com/yukikurage/jobsworth/internal/metrics"
	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/notifications"
	"github.com/yukikurage/jobsworth/internal/repository"
	"github.com/yukikurage/jobsworth/internal/scoring"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrMilestoneNotFound       = errors.New("milestone not found")
	ErrProjectPermissionDenied = errors.New("user has no permission on the project")
	ErrInvalidStatus           = errors.New("invalid task status")
	ErrInvalidMilestone        = errors.New("milestone does not belong to the task project")
	ErrSelfDependency          = errors.New("a task cannot depend on itself")
	ErrDependencyNotFound      = errors.New("dependency task not found")
	ErrInvalidUser             = errors.New("user does not exist or belongs to another company")
	ErrInvalidProperty         = errors.New("property does not exist or belongs to another company")
	ErrInvalidPropertyValue    = errors.New("value does not belong to the property")
	ErrInvalidCustomer         = errors.New("one or more customers do not exist or belong to another company")
)

// Repositories bundles the data access the task services need
type Repositories struct {
	Tasks      repository.TaskRepository
	Users      repository.UserRepository
	Companies  repository.CompanyRepository
	Milestones repository.MilestoneRepository
}

// Options carries the optional collaborators of TaskService. Zero values are
// replaced with working defaults; a nil Events disables publishing.
type Options struct {
	Scorer  *scoring.Scorer
	Events  events.Client
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// TaskService handles task business logic
type TaskService struct {
	repos    Repositories
	scorer   *scoring.Scorer
	events   events.Client
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(repos Repositories, opts Options) *TaskService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scorer == nil {
		opts.Scorer = scoring.NewScorer(nil, opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TaskService{
		repos:    repos,
		scorer:   opts.Scorer,
		events:   opts.Events,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		validate: newValidator(),
		now:      opts.Now,
	}
}

// Now returns the service clock
func (s *TaskService) Now() time.Time {
	return s.now()
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID       uint64
	Status       *models.TaskStatus
	MilestoneID  *uint64
	ScoredOnly   bool
	SortByWeight bool
	Page         int
	PageSize     int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	CreatorID        uint64
	ProjectID        uint64
	MilestoneID      *uint64
	Name             string
	Description      string
	Status           *models.TaskStatus
	Priority         int
	Severity         int
	DueAt            *time.Time
	HideUntil        *time.Time
	WaitForCustomer  bool
	WeightAdjustment int
	Todos            []string
	Properties       map[uint64]uint64
	CustomerIDs      []uint64
}

// UpdateTaskInput represents a partial update. Nil fields are left alone.
type UpdateTaskInput struct {
	Name             *string
	Description      *string
	Status           *models.TaskStatus
	CompletedAt      *time.Time
	Priority         *int
	Severity         *int
	DueAt            *time.Time
	ClearDueAt       bool
	HideUntil        *time.Time
	ClearHideUntil   bool
	WaitForCustomer  *bool
	MilestoneID      *uint64
	ClearMilestone   bool
	WeightAdjustment *int
}

// AccessibleTasks lists the tasks of every project the user holds a
// permission on. Completed projects and closed milestones do not hide tasks.
func (s *TaskService) AccessibleTasks(input ListTasksInput) ([]models.Task, int64, error) {
	projectIDs, err := s.repos.Users.ProjectIDs(input.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch project permissions: %w", err)
	}

	if len(projectIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	tasks, total, err := s.repos.Tasks.List(repository.TaskFilter{
		ProjectIDs:   projectIDs,
		Status:       input.Status,
		MilestoneID:  input.MilestoneID,
		ScoredOnly:   input.ScoredOnly,
		SortByWeight: input.SortByWeight,
		Page:         input.Page,
		PageSize:     input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// CanAccess reports whether the user holds a permission on the task project
func (s *TaskService) CanAccess(userID uint64, task *models.Task) (bool, error) {
	ok, err := s.repos.Users.HasProjectPermission(userID, task.ProjectID)
	if err != nil {
		return false, fmt.Errorf("failed to check project permission: %w", err)
	}
	return ok, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.repos.Tasks.FindByID(taskID,
		"Milestone",
		"Todos",
		"Customers.Customer",
		"PropertyValues.PropertyValue",
	)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask validates and stores a new task with its todos, properties and
// customers, then publishes its initial score.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	creator, err := s.findUser(input.CreatorID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProjectPermission(creator.ID, input.ProjectID); err != nil {
		return nil, err
	}

	status := models.TaskStatusOpen
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		status = *input.Status
	}

	task := &models.Task{
		Kind:             models.TaskKindTask,
		CompanyID:        creator.CompanyID,
		ProjectID:        input.ProjectID,
		MilestoneID:      input.MilestoneID,
		CreatorID:        &creator.ID,
		Name:             input.Name,
		Description:      input.Description,
		Status:           status,
		Priority:         input.Priority,
		Severity:         input.Severity,
		DueAt:            input.DueAt,
		HideUntil:        input.HideUntil,
		WaitForCustomer:  input.WaitForCustomer,
		WeightAdjustment: input.WeightAdjustment,
	}
	if task.Resolved() {
		now := s.now()
		task.CompletedAt = &now
	}
	for i, name := range input.Todos {
		task.Todos = append(task.Todos, models.Todo{Name: name, Position: i})
	}

	if err := structErrors(s.validate.Struct(task)); err != nil {
		return nil, err
	}
	milestone, err := s.checkMilestone(task)
	if err != nil {
		return nil, err
	}
	if err := s.checkProperties(task.CompanyID, input.Properties); err != nil {
		return nil, err
	}
	if err := s.checkMandatoryProperties(task.CompanyID, input.Properties); err != nil {
		return nil, err
	}
	customerIDs := uniqueUint64(input.CustomerIDs)
	if err := s.checkCustomers(task.CompanyID, customerIDs); err != nil {
		return nil, err
	}

	gate := s.apply(scoring.Input{Task: task, Milestone: milestone})

	if err := s.repos.Tasks.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if len(input.Properties) > 0 {
		if err := s.repos.Tasks.ReplacePropertyValues(task.ID, input.Properties); err != nil {
			return nil, fmt.Errorf("failed to set task properties: %w", err)
		}
	}
	if len(customerIDs) > 0 {
		if err := s.repos.Tasks.ReplaceCustomers(task.ID, customerIDs); err != nil {
			return nil, fmt.Errorf("failed to set task customers: %w", err)
		}
	}

	s.publishUpdated(task, gate)
	s.logger.Info("task created", "task_id", task.ID, "task_num", task.TaskNum, "company_id", task.CompanyID)

	return s.GetTask(task.ID)
}

// UpdateTask applies a partial update. Moving a task from open to resolved
// stamps completed_at and reopening clears it, unless the input sets it.
// When the task becomes done or stops being done, the tasks depending on it
// are rescored.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	wasDone := task.Done()

	if input.Name != nil {
		task.Name = *input.Name
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *input.Status != task.Status {
			wasResolved := task.Resolved()
			task.Status = *input.Status
			switch {
			case !wasResolved && task.Resolved():
				now := s.now()
				task.CompletedAt = &now
			case !task.Resolved():
				task.CompletedAt = nil
			}
		}
	}
	if input.CompletedAt != nil {
		task.CompletedAt = input.CompletedAt
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Severity != nil {
		task.Severity = *input.Severity
	}
	if input.ClearDueAt {
		task.DueAt = nil
	} else if input.DueAt != nil {
		task.DueAt = input.DueAt
	}
	if input.ClearHideUntil {
		task.HideUntil = nil
	} else if input.HideUntil != nil {
		task.HideUntil = input.HideUntil
	}
	if input.WaitForCustomer != nil {
		task.WaitForCustomer = *input.WaitForCustomer
	}
	if input.ClearMilestone {
		task.MilestoneID = nil
	} else if input.MilestoneID != nil {
		task.MilestoneID = input.MilestoneID
	}
	if input.WeightAdjustment != nil {
		task.WeightAdjustment = *input.WeightAdjustment
	}

	if err := structErrors(s.validate.Struct(task)); err != nil {
		return nil, err
	}
	if _, err := s.checkMilestone(task); err != nil {
		return nil, err
	}
	if err := s.Validate(task); err != nil {
		return nil, err
	}

	gate, err := s.score(task)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Tasks.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	s.publishUpdated(task, gate)

	if wasDone != task.Done() {
		if err := s.rescoreDependents(task.ID); err != nil {
			return nil, err
		}
	}

	return s.GetTask(task.ID)
}

// DeleteTask deletes a task and rescores the tasks it was blocking
func (s *TaskService) DeleteTask(taskID uint64) error {
	if _, err := s.findTask(taskID); err != nil {
		return err
	}

	dependents, err := s.repos.Tasks.DependentIDs(taskID)
	if err != nil {
		return fmt.Errorf("failed to load dependents: %w", err)
	}

	if err := s.repos.Tasks.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.logger.Info("task deleted", "task_id", taskID)

	return s.rescoreIDs(dependents)
}

// AddDependency makes taskID wait on dependencyID and rescores it
func (s *TaskService) AddDependency(taskID, dependencyID uint64) (*models.Task, error) {
	if taskID == dependencyID {
		return nil, ErrSelfDependency
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	dep, err := s.repos.Tasks.FindByID(dependencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDependencyNotFound
		}
		return nil, fmt.Errorf("failed to find dependency: %w", err)
	}
	if dep.CompanyID != task.CompanyID {
		return nil, ErrDependencyNotFound
	}

	if err := s.repos.Tasks.AddDependency(taskID, dependencyID); err != nil {
		return nil, fmt.Errorf("failed to add dependency: %w", err)
	}

	if err := s.rescore(task); err != nil {
		return nil, err
	}
	return s.GetTask(taskID)
}

// RemoveDependency drops a dependency and rescores the task
func (s *TaskService) RemoveDependency(taskID, dependencyID uint64) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Tasks.RemoveDependency(taskID, dependencyID); err != nil {
		return nil, fmt.Errorf("failed to remove dependency: %w", err)
	}

	if err := s.rescore(task); err != nil {
		return nil, err
	}
	return s.GetTask(taskID)
}

// Dependencies returns the tasks blocking taskID
func (s *TaskService) Dependencies(taskID uint64) ([]*models.Task, error) {
	deps, err := s.repos.Tasks.Dependencies(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	return deps, nil
}

// AddWatcher adds a watcher marker for the user
func (s *TaskService) AddWatcher(taskID, userID uint64) error {
	return s.addUser(taskID, userID, models.TaskUserRoleWatcher)
}

// AddOwner adds an owner marker for the user
func (s *TaskService) AddOwner(taskID, userID uint64) error {
	return s.addUser(taskID, userID, models.TaskUserRoleOwner)
}

func (s *TaskService) addUser(taskID, userID uint64, role models.TaskUserRole) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	count, err := s.repos.Users.CountByIDs([]uint64{userID}, task.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	if count != 1 {
		return ErrInvalidUser
	}

	if err := s.repos.Tasks.AddUser(taskID, userID, role); err != nil {
		return fmt.Errorf("failed to add %s: %w", role, err)
	}
	return nil
}

// Recipients resolves the users to notify about the task. When excludingID
// is set, that user is left out unless they receive their own notifications.
func (s *TaskService) Recipients(taskID uint64, excludingID *uint64) ([]models.User, error) {
	if _, err := s.findTask(taskID); err != nil {
		return nil, err
	}

	markers, err := s.repos.Tasks.TaskUsers(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task users: %w", err)
	}

	var excluding *models.User
	if excludingID != nil {
		excluding, err = s.findUser(*excludingID)
		if err != nil {
			return nil, err
		}
	}

	return notifications.Recipients(markers, excluding), nil
}

// MarkAsUnread flags every watcher and owner marker of the task unread
func (s *TaskService) MarkAsUnread(taskID uint64) (int64, error) {
	affected, err := s.repos.Tasks.MarkUnread(taskID, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to mark task unread: %w", err)
	}
	return affected, nil
}

// Unread reports whether the user has an unread marker on the task
func (s *TaskService) Unread(taskID, userID uint64) (bool, error) {
	markers, err := s.repos.Tasks.UserMarkers(taskID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load markers: %w", err)
	}
	for _, m := range markers {
		if m.Unread {
			return true, nil
		}
	}
	return false, nil
}

// MarkAsRead clears the user's unread markers on the task
func (s *TaskService) MarkAsRead(taskID, userID uint64) error {
	if err := s.repos.Tasks.MarkRead(taskID, userID); err != nil {
		return fmt.Errorf("failed to mark task read: %w", err)
	}
	return nil
}

// Notify marks the task unread for its watchers and owners, resolves the
// recipients excluding the actor and publishes a notify event. Delivery is
// left to the event consumers.
func (s *TaskService) Notify(taskID uint64, actorID *uint64) ([]models.User, error) {
	recipients, err := s.Recipients(taskID, actorID)
	if err != nil {
		return nil, err
	}

	marked, err := s.MarkAsUnread(taskID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveNotify(marked)

	s.publish(events.SubjectTaskNotify(taskID), events.TaskNotifyEvent{
		EventID:      events.NewEventID(),
		TaskID:       taskID,
		ActorID:      actorID,
		RecipientIDs: notifications.UserIDs(recipients),
		OccurredAt:   s.now(),
	})
	s.logger.Info("task notification resolved", "task_id", taskID, "recipients", len(recipients), "markers", marked)

	return recipients, nil
}

// SetProperties replaces every property value on the task. Mandatory
// properties of the company must all be present.
func (s *TaskService) SetProperties(taskID uint64, values map[uint64]uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}
	if err := s.checkProperties(task.CompanyID, values); err != nil {
		return err
	}
	if err := s.checkMandatoryProperties(task.CompanyID, values); err != nil {
		return err
	}

	if err := s.repos.Tasks.ReplacePropertyValues(taskID, values); err != nil {
		return fmt.Errorf("failed to set task properties: %w", err)
	}
	return nil
}

// SetPropertyValue sets a single property on the task; a nil value clears it
func (s *TaskService) SetPropertyValue(taskID, propertyID uint64, valueID *uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if valueID != nil {
		if err := s.checkProperties(task.CompanyID, map[uint64]uint64{propertyID: *valueID}); err != nil {
			return err
		}
	}

	if err := s.repos.Tasks.SetPropertyValue(taskID, propertyID, valueID); err != nil {
		return fmt.Errorf("failed to set property value: %w", err)
	}
	return nil
}

// PropertyValue returns the value the task holds for a property, or nil
func (s *TaskService) PropertyValue(taskID, propertyID uint64) (*models.PropertyValue, error) {
	values, err := s.repos.Tasks.PropertyValues(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property values: %w", err)
	}
	for _, v := range values {
		if v.PropertyID == propertyID {
			value := v.PropertyValue
			return &value, nil
		}
	}
	return nil, nil
}

// Validate checks that the task holds a value for every mandatory property
// of its company.
func (s *TaskService) Validate(task *models.Task) error {
	values, err := s.repos.Tasks.PropertyValues(task.ID)
	if err != nil {
		return fmt.Errorf("failed to load property values: %w", err)
	}

	set := make(map[uint64]uint64, len(values))
	for _, v := range values {
		set[v.PropertyID] = v.PropertyValueID
	}
	return s.checkMandatoryProperties(task.CompanyID, set)
}

// ReplaceCustomers sets the customers the task is done for
func (s *TaskService) ReplaceCustomers(taskID uint64, customerIDs []uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	ids := uniqueUint64(customerIDs)
	if err := s.checkCustomers(task.CompanyID, ids); err != nil {
		return err
	}

	if err := s.repos.Tasks.ReplaceCustomers(taskID, ids); err != nil {
		return fmt.Errorf("failed to set task customers: %w", err)
	}
	return nil
}

// UserWork returns minutes worked on the task per user, omitting users
// without logged time.
func (s *TaskService) UserWork(taskID uint64) (map[uint64]int, error) {
	work, err := s.repos.Tasks.WorkByUser(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum work logs: %w", err)
	}
	return work, nil
}

// WorkedOn reports whether someone has a timer running on the task
func (s *TaskService) WorkedOn(taskID uint64) (bool, error) {
	ok, err := s.repos.Tasks.HasSheets(taskID)
	if err != nil {
		return false, fmt.Errorf("failed to check sheets: %w", err)
	}
	return ok, nil
}

// Gate evaluates the scoring gate of the task at the current time
func (s *TaskService) Gate(task *models.Task) (scoring.GateResult, error) {
	in, err := s.scoringInput(task)
	if err != nil {
		return scoring.GateResult{}, err
	}
	return scoring.Gate(in, s.now()), nil
}

// Snoozed reports whether any gating condition currently keeps the task
// from carrying a weight.
func (s *TaskService) Snoozed(task *models.Task) (bool, error) {
	gate, err := s.Gate(task)
	if err != nil {
		return false, err
	}
	return !gate.Scoreable, nil
}

// ExpireHideUntil clears every hide_until at or before now and rescores the
// tasks it touched. Running it again, or from several replicas at once, only
// repeats the rescoring.
func (s *TaskService) ExpireHideUntil(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repos.Tasks.ExpireHideUntil(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire hide_until: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.rescoreIDs(ids); err != nil {
		return len(ids), err
	}

	s.publish(events.SubjectHideUntilExpired, events.HideUntilExpiredEvent{
		EventID:    events.NewEventID(),
		TaskIDs:    ids,
		OccurredAt: now,
	})
	return len(ids), nil
}

// rescoreMilestone rescores the tasks of a milestone against its new state
func (s *TaskService) rescoreMilestone(milestone *models.Milestone) error {
	tasks, err := s.repos.Tasks.ListByMilestone(milestone.ID)
	if err != nil {
		return fmt.Errorf("failed to list milestone tasks: %w", err)
	}

	for i := range tasks {
		task := &tasks[i]
		deps, err := s.repos.Tasks.Dependencies(task.ID)
		if err != nil {
			return fmt.Errorf("failed to load dependencies: %w", err)
		}
		if err := s.save(task, s.apply(scoring.Input{Task: task, Milestone: milestone, Dependencies: deps})); err != nil {
			return err
		}
	}
	return nil
}

func (s *TaskService) rescoreDependents(taskID uint64) error {
	ids, err := s.repos.Tasks.DependentIDs(taskID)
	if err != nil {
		return fmt.Errorf("failed to load dependents: %w", err)
	}
	return s.rescoreIDs(ids)
}

func (s *TaskService) rescoreIDs(ids []uint64) error {
	tasks, err := s.repos.Tasks.ListByIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	for i := range tasks {
		if err := s.rescore(&tasks[i]); err != nil {
			return err
		}
	}
	return nil
}

// rescore recomputes and stores the weight of a task
func (s *TaskService) rescore(task *models.Task) error {
	gate, err := s.score(task)
	if err != nil {
		return err
	}
	return s.save(task, gate)
}

// save persists only the weight; rescoring runs on tasks loaded in the
// background and must not overwrite concurrent edits
func (s *TaskService) save(task *models.Task, gate scoring.GateResult) error {
	if err := s.repos.Tasks.UpdateWeight(task.ID, task.Weight); err != nil {
		return fmt.Errorf("failed to store task weight: %w", err)
	}
	s.publishUpdated(task, gate)
	return nil
}

func (s *TaskService) score(task *models.Task) (scoring.GateResult, error) {
	in, err := s.scoringInput(task)
	if err != nil {
		return scoring.GateResult{}, err
	}
	return s.apply(in), nil
}

func (s *TaskService) apply(in scoring.Input) scoring.GateResult {
	gate := s.scorer.Apply(in, s.now())
	s.metrics.ObserveScore(gate.Scoreable)
	return gate
}

// scoringInput materializes the milestone and dependencies of a task. A
// milestone that no longer exists counts as none.
func (s *TaskService) scoringInput(task *models.Task) (scoring.Input, error) {
	in := scoring.Input{Task: task}

	if task.MilestoneID != nil {
		milestone, err := s.repos.Milestones.FindByID(*task.MilestoneID)
		switch {
		case err == nil:
			in.Milestone = milestone
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return in, fmt.Errorf("failed to find milestone: %w", err)
		}
	}

	if task.ID != 0 {
		deps, err := s.repos.Tasks.Dependencies(task.ID)
		if err != nil {
			return in, fmt.Errorf("failed to load dependencies: %w", err)
		}
		in.Dependencies = deps
	}

	return in, nil
}

func (s *TaskService) publishUpdated(task *models.Task, gate scoring.GateResult) {
	reasons := make([]string, len(gate.Reasons))
	for i, r := range gate.Reasons {
		reasons[i] = string(r)
	}

	s.publish(events.SubjectTaskUpdated(task.ID), events.TaskUpdatedEvent{
		EventID:    events.NewEventID(),
		TaskID:     task.ID,
		Status:     task.StatusType(),
		Weight:     task.Weight,
		Snoozed:    !gate.Scoreable,
		Reasons:    reasons,
		OccurredAt: s.now(),
	})
}

func (s *TaskService) publish(subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func (s *TaskService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.repos.Tasks.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findUser(userID uint64) (*models.User, error) {
	user, err := s.repos.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ensureProjectPermission verifies that a user may work in a project
func (s *TaskService) ensureProjectPermission(userID, projectID uint64) error {
	ok, err := s.repos.Users.HasProjectPermission(userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to check project permission: %w", err)
	}
	if !ok {
		return ErrProjectPermissionDenied
	}
	return nil
}

// checkMilestone returns the milestone of the task after checking it belongs
// to the same project.
func (s *TaskService) checkMilestone(task *models.Task) (*models.Milestone, error) {
	if task.MilestoneID == nil {
		return nil, nil
	}

	milestone, err := s.repos.Milestones.FindByID(*task.MilestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("failed to find milestone: %w", err)
	}
	if milestone.ProjectID != task.ProjectID {
		return nil, ErrInvalidMilestone
	}
	return milestone, nil
}

func (s *TaskService) checkProperties(companyID uint64, values map[uint64]uint64) error {
	for propertyID, valueID := range values {
		if _, err := s.repos.Companies.FindProperty(companyID, propertyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidProperty
			}
			return fmt.Errorf("failed to find property: %w", err)
		}

		count, err := s.repos.Companies.CountPropertyValues(propertyID, []uint64{valueID})
		if err != nil {
			return fmt.Errorf("failed to verify property value: %w", err)
		}
		if count != 1 {
			return ErrInvalidPropertyValue
		}
	}
	return nil
}

func (s *TaskService) checkMandatoryProperties(companyID uint64, values map[uint64]uint64) error {
	mandatory, err := s.repos.Companies.MandatoryProperties(companyID)
	if err != nil {
		return fmt.Errorf("failed to load mandatory properties: %w", err)
	}

	verr := &ValidationError{}
	for _, p := range mandatory {
		if _, ok := values[p.ID]; !ok {
			verr.add(p.Name, "is required")
		}
	}
	if !verr.empty() {
		return verr
	}
	return nil
}

func (s *TaskService) checkCustomers(companyID uint64, customerIDs []uint64) error {
	if len(customerIDs) == 0 {
		return nil
	}

	count, err := s.repos.Companies.CountCustomers(companyID, customerIDs)
	if err != nil {
		return fmt.Errorf("failed to verify customers: %w", err)
	}
	if int(count) != len(customerIDs) {
		return ErrInvalidCustomer
	}
	return nil
}

func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
