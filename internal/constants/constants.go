package constants

// Session and context keys
const (
	SessionCookieName   = "task_session"
	ContextKeyUserID    = "user_id"
	ContextKeyTask      = "task"
	ContextKeyMilestone = "milestone"
)

// Pagination bounds
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Task field limits
const (
	MaxTaskNameLength = 200
)
