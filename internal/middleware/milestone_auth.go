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

// MilestoneAccess loads milestones and answers project permission checks
type MilestoneAccess interface {
	GetMilestone(milestoneID uint64) (*models.Milestone, error)
	CanAccess(userID uint64, milestone *models.Milestone) (bool, error)
}

// RequireMilestoneAccess checks if the user holds a permission on the
// milestone's project
func RequireMilestoneAccess(access MilestoneAccess) gin.HandlerFunc {
	return func(c *gin.Context) {
		milestoneID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid milestone ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		milestone, err := access.GetMilestone(milestoneID)
		if err != nil {
			if errors.Is(err, services.ErrMilestoneNotFound) {
				apierrors.NotFound(c, "Milestone not found")
			} else {
				apierrors.InternalError(c, "Failed to load milestone")
			}
			c.Abort()
			return
		}

		ok, err := access.CanAccess(userID, milestone)
		if err != nil {
			apierrors.InternalError(c, "Failed to check milestone access")
			c.Abort()
			return
		}
		if !ok {
			apierrors.NotFound(c, "Milestone not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyMilestone, milestone)
		c.Next()
	}
}

// GetMilestone retrieves the milestone loaded by RequireMilestoneAccess
func GetMilestone(c *gin.Context) (*models.Milestone, bool) {
	value, exists := c.Get(constants.ContextKeyMilestone)
	if !exists {
		return nil, false
	}
	milestone, ok := value.(*models.Milestone)
	return milestone, ok
}
