package repository

import (
	"context"
	"sort"
	"time"

	"github.com/yukikurage/jobsworth/internal/database"
	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create assigns the next task number of the company and inserts the task
// with its todos. Templates share the sequence and soft deleted tasks keep
// their numbers reserved.
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if task.Kind == "" {
			task.Kind = models.TaskKindTask
		}

		var maxNum int
		if err := tx.Unscoped().
			Model(&models.Task{}).
			Where("company_id = ?", task.CompanyID).
			Select("COALESCE(MAX(task_num), 0)").
			Scan(&maxNum).Error; err != nil {
			return err
		}
		task.TaskNum = maxNum + 1

		return tx.Omit("Project", "Milestone", "Dependencies", "Users").Create(task).Error
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.ProjectIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).
		Scopes(database.Tasks).
		Where("tasks.project_id IN ?", filter.ProjectIDs)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.MilestoneID != nil {
		query = query.Where("tasks.milestone_id = ?", *filter.MilestoneID)
	}
	if filter.ScoredOnly {
		query = query.Where("tasks.weight IS NOT NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByWeight {
		listQuery = listQuery.Order("CASE WHEN tasks.weight IS NULL THEN 1 ELSE 0 END, tasks.weight DESC, tasks.id ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC, tasks.id DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Milestone").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update saves the task columns; associations are written through their own methods
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

// UpdateWeight stores only the weight column, leaving fields edited since the
// task was loaded untouched
func (r *GormTaskRepository) UpdateWeight(taskID uint64, weight *int) error {
	return r.db.Model(&models.Task{}).
		Where("id = ?", taskID).
		UpdateColumn("weight", weight).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskUser{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM dependencies WHERE task_id = ? OR dependency_id = ?", id, id).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// ListByIDs loads tasks by ID, skipping missing ones
func (r *GormTaskRepository) ListByIDs(ids []uint64) ([]models.Task, error) {
	var tasks []models.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	if err := r.db.Where("id IN ?", ids).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByMilestone lists the tasks scheduled in a milestone
func (r *GormTaskRepository) ListByMilestone(milestoneID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("milestone_id = ?", milestoneID).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Dependencies returns the tasks blocking taskID. Deleted tasks are left out.
func (r *GormTaskRepository) Dependencies(taskID uint64) ([]*models.Task, error) {
	var deps []*models.Task
	if err := r.db.Model(&models.Task{ID: taskID}).
		Order("tasks.id").
		Association("Dependencies").
		Find(&deps); err != nil {
		return nil, err
	}
	return deps, nil
}

// DependentIDs returns the ids of tasks blocked by taskID
func (r *GormTaskRepository) DependentIDs(taskID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Table("dependencies").
		Where("dependency_id = ?", taskID).
		Order("task_id").
		Pluck("task_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AddDependency records that taskID depends on dependencyID
func (r *GormTaskRepository) AddDependency(taskID, dependencyID uint64) error {
	return r.db.Table("dependencies").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{
			"task_id":       taskID,
			"dependency_id": dependencyID,
		}).Error
}

// RemoveDependency drops a dependency
func (r *GormTaskRepository) RemoveDependency(taskID, dependencyID uint64) error {
	return r.db.Exec("DELETE FROM dependencies WHERE task_id = ? AND dependency_id = ?", taskID, dependencyID).Error
}

// AddUser gives a user a watcher or owner marker on a task
func (r *GormTaskRepository) AddUser(taskID, userID uint64, role models.TaskUserRole) error {
	return r.db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.TaskUser{
			TaskID: taskID,
			UserID: userID,
			Role:   role,
		}).Error
}

// TaskUsers returns the watcher and owner markers with users preloaded
func (r *GormTaskRepository) TaskUsers(taskID uint64) ([]models.TaskUser, error) {
	var markers []models.TaskUser
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("id").
		Find(&markers).Error; err != nil {
		return nil, err
	}
	return markers, nil
}

// MarkUnread flags every marker of the task unread, except those of exceptUserID
func (r *GormTaskRepository) MarkUnread(taskID uint64, exceptUserID *uint64) (int64, error) {
	query := r.db.Model(&models.TaskUser{}).Where("task_id = ?", taskID)
	if exceptUserID != nil {
		query = query.Where("user_id <> ?", *exceptUserID)
	}

	result := query.Update("unread", true)
	return result.RowsAffected, result.Error
}

// MarkRead clears the unread flag on a user's markers
func (r *GormTaskRepository) MarkRead(taskID, userID uint64) error {
	return r.db.Model(&models.TaskUser{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Update("unread", false).Error
}

// UserMarkers returns the markers one user holds on a task
func (r *GormTaskRepository) UserMarkers(taskID, userID uint64) ([]models.TaskUser, error) {
	var markers []models.TaskUser
	if err := r.db.Where("task_id = ? AND user_id = ?", taskID, userID).
		Order("id").
		Find(&markers).Error; err != nil {
		return nil, err
	}
	return markers, nil
}

type userWorkRow struct {
	UserID uint64
	Total  int
}

// WorkByUser sums work log minutes per user, omitting zero totals
func (r *GormTaskRepository) WorkByUser(taskID uint64) (map[uint64]int, error) {
	var rows []userWorkRow
	if err := r.db.Model(&models.WorkLog{}).
		Select("user_id, SUM(duration) AS total").
		Where("task_id = ?", taskID).
		Group("user_id").
		Having("SUM(duration) > 0").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	work := make(map[uint64]int, len(rows))
	for _, row := range rows {
		work[row.UserID] = row.Total
	}
	return work, nil
}

// HasSheets reports whether any timer is open on the task
func (r *GormTaskRepository) HasSheets(taskID uint64) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Sheet{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplacePropertyValues swaps every property value on the task for values,
// keyed by property id
func (r *GormTaskRepository) ReplacePropertyValues(taskID uint64, values map[uint64]uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskPropertyValue{}).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}

		propertyIDs := make([]uint64, 0, len(values))
		for propertyID := range values {
			propertyIDs = append(propertyIDs, propertyID)
		}
		sort.Slice(propertyIDs, func(i, j int) bool { return propertyIDs[i] < propertyIDs[j] })

		rows := make([]models.TaskPropertyValue, len(propertyIDs))
		for i, propertyID := range propertyIDs {
			rows[i] = models.TaskPropertyValue{
				TaskID:          taskID,
				PropertyID:      propertyID,
				PropertyValueID: values[propertyID],
			}
		}
		return tx.Omit("PropertyValue").Create(&rows).Error
	})
}

// SetPropertyValue sets one property value, clearing it when valueID is nil
func (r *GormTaskRepository) SetPropertyValue(taskID, propertyID uint64, valueID *uint64) error {
	if valueID == nil {
		return r.db.Where("task_id = ? AND property_id = ?", taskID, propertyID).
			Delete(&models.TaskPropertyValue{}).Error
	}

	return r.db.Omit("PropertyValue").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "property_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"property_value_id"}),
		}).
		Create(&models.TaskPropertyValue{
			TaskID:          taskID,
			PropertyID:      propertyID,
			PropertyValueID: *valueID,
		}).Error
}

// PropertyValues returns the task property values with values preloaded
func (r *GormTaskRepository) PropertyValues(taskID uint64) ([]models.TaskPropertyValue, error) {
	var values []models.TaskPropertyValue
	if err := r.db.Preload("PropertyValue").
		Where("task_id = ?", taskID).
		Order("property_id").
		Find(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// ReplaceCustomers swaps the customer set of a task
func (r *GormTaskRepository) ReplaceCustomers(taskID uint64, customerIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskCustomer{}).Error; err != nil {
			return err
		}
		if len(customerIDs) == 0 {
			return nil
		}

		rows := make([]models.TaskCustomer, len(customerIDs))
		for i, customerID := range customerIDs {
			rows[i] = models.TaskCustomer{TaskID: taskID, CustomerID: customerID}
		}
		return tx.Omit("Customer").Create(&rows).Error
	})
}

// ExpireHideUntil clears hide_until on every task whose date has passed. The
// update re-checks the predicate, so concurrent sweeps and tasks created in
// the meantime are left alone, and clearing an already cleared row is a no-op.
func (r *GormTaskRepository) ExpireHideUntil(ctx context.Context, now time.Time) ([]uint64, error) {
	var ids []uint64
	now = now.UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("hide_until <= ?", now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		return tx.Model(&models.Task{}).
			Where("id IN ? AND hide_until <= ?", ids, now).
			UpdateColumn("hide_until", nil).Error
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}
