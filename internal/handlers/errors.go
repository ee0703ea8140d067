package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/jobsworth/internal/errors"
	"github.com/yukikurage/jobsworth/internal/services"
)

// respondError maps a service error onto an API error response
func respondError(c *gin.Context, logger *slog.Logger, err error, message string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationFailed(c, verr.Fields)
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrMilestoneNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrDependencyNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProjectPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidMilestone),
		errors.Is(err, services.ErrSelfDependency),
		errors.Is(err, services.ErrInvalidUser),
		errors.Is(err, services.ErrInvalidProperty),
		errors.Is(err, services.ErrInvalidPropertyValue),
		errors.Is(err, services.ErrInvalidCustomer),
		errors.Is(err, services.ErrInvalidMilestoneStatus):
		apierrors.BadRequest(c, err.Error())
	default:
		logger.Error(message, "error", err, "path", c.FullPath())
		apierrors.InternalError(c, message)
	}
}
