package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/jobsworth/internal/constants"
	"github.com/yukikurage/jobsworth/internal/metrics"
	"github.com/yukikurage/jobsworth/internal/middleware"
	"github.com/yukikurage/jobsworth/internal/services"
)

// Deps holds what the HTTP layer is built from
type Deps struct {
	Tasks        *services.TaskService
	Milestones   *services.MilestoneService
	Metrics      *metrics.Metrics
	SessionStore sessions.Store
	Logger       *slog.Logger
}

// NewRouter wires every route onto a new gin engine
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	taskHandler := NewTaskHandler(deps.Tasks, deps.Logger)
	milestoneHandler := NewMilestoneHandler(deps.Milestones, deps.Logger)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Jobsworth is running",
		})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	requireTask := middleware.RequireTaskAccess(deps.Tasks)
	requireMilestone := middleware.RequireMilestoneAccess(deps.Milestones)

	// API routes
	api := r.Group("/api")
	api.Use(middleware.RequireAuth())
	{
		// Task routes (protected)
		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", requireTask, taskHandler.GetTask)
			tasks.PATCH("/:id", requireTask, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireTask, taskHandler.DeleteTask)

			tasks.GET("/:id/dependencies", requireTask, taskHandler.ListDependencies)
			tasks.POST("/:id/dependencies", requireTask, taskHandler.AddDependency)
			tasks.DELETE("/:id/dependencies/:dependency_id", requireTask, taskHandler.RemoveDependency)

			tasks.POST("/:id/watchers", requireTask, taskHandler.AddWatcher)
			tasks.POST("/:id/owners", requireTask, taskHandler.AddOwner)
			tasks.GET("/:id/recipients", requireTask, taskHandler.Recipients)
			tasks.POST("/:id/notify", requireTask, taskHandler.Notify)
			tasks.GET("/:id/unread", requireTask, taskHandler.Unread)
			tasks.POST("/:id/read", requireTask, taskHandler.MarkAsRead)

			tasks.GET("/:id/work", requireTask, taskHandler.Work)
			tasks.PUT("/:id/properties", requireTask, taskHandler.ReplaceProperties)
			tasks.GET("/:id/properties/:property_id", requireTask, taskHandler.GetPropertyValue)
			tasks.PUT("/:id/properties/:property_id", requireTask, taskHandler.SetPropertyValue)
			tasks.PUT("/:id/customers", requireTask, taskHandler.ReplaceCustomers)
		}

		// Milestone routes (protected)
		milestones := api.Group("/milestones")
		{
			milestones.GET("/:id", requireMilestone, milestoneHandler.GetMilestone)
			milestones.PATCH("/:id/status", requireMilestone, milestoneHandler.UpdateStatus)
		}
	}

	return r
}
