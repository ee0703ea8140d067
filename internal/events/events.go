package events

import (
	"time"

	"github.com/google/uuid"
)

type TaskUpdatedEvent struct {
	EventID    string    `json:"event_id"`
	TaskID     uint64    `json:"task_id"`
	Status     string    `json:"status"`
	Weight     *int      `json:"weight"`
	Snoozed    bool      `json:"snoozed"`
	Reasons    []string  `json:"reasons,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TaskNotifyEvent struct {
	EventID      string    `json:"event_id"`
	TaskID       uint64    `json:"task_id"`
	ActorID      *uint64   `json:"actor_id,omitempty"`
	RecipientIDs []uint64  `json:"recipient_ids"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type HideUntilExpiredEvent struct {
	EventID    string    `json:"event_id"`
	TaskIDs    []uint64  `json:"task_ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEventID returns a random id consumers can use to drop redelivered events.
func NewEventID() string {
	return uuid.NewString()
}
