package models

import (
	"fmt"
	"strings"
)

// TaskStatus is the resolution state of a task. Values are persisted as
// integers so their order must never change.
type TaskStatus int

const (
	TaskStatusOpen TaskStatus = iota
	TaskStatusClosed
	TaskStatusWontFix
	TaskStatusInvalid
	TaskStatusDuplicate
)

var taskStatusTypes = [...]string{
	TaskStatusOpen:      "Open",
	TaskStatusClosed:    "Closed",
	TaskStatusWontFix:   "Won't fix",
	TaskStatusInvalid:   "Invalid",
	TaskStatusDuplicate: "Duplicate",
}

// TaskStatuses lists every status in persisted order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusOpen,
		TaskStatusClosed,
		TaskStatusWontFix,
		TaskStatusInvalid,
		TaskStatusDuplicate,
	}
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s >= TaskStatusOpen && s <= TaskStatusDuplicate
}

// String returns the display name of the status.
func (s TaskStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
	return taskStatusTypes[s]
}

// ParseTaskStatus accepts either a display name ("Won't fix") or a snake
// case name ("wont_fix"), case insensitive.
func ParseTaskStatus(name string) (TaskStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("'", "", " ", "_").Replace(normalized)

	for _, s := range TaskStatuses() {
		candidate := strings.NewReplacer("'", "", " ", "_").Replace(strings.ToLower(s.String()))
		if candidate == normalized {
			return s, nil
		}
	}
	return TaskStatusOpen, fmt.Errorf("unknown task status %q", name)
}
