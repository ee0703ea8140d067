package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/jobsworth/internal/constants"
	apierrors "github.com/yukikurage/jobsworth/internal/errors"
	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/services"
)

// TaskAccess loads tasks and answers project permission checks
type TaskAccess interface {
	GetTask(taskID uint64) (*models.Task, error)
	CanAccess(userID uint64, task *models.Task) (bool, error)
}

// RequireTaskAccess checks if the user has access to a task
// User must hold a permission on the task's project
func RequireTaskAccess(access TaskAccess) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := access.GetTask(taskID)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				apierrors.InternalError(c, "Failed to load task")
			}
			c.Abort()
			return
		}

		ok, err := access.CanAccess(userID, task)
		if err != nil {
			apierrors.InternalError(c, "Failed to check task access")
			c.Abort()
			return
		}
		if !ok {
			// Return 404 instead of 403 to avoid leaking task existence
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
