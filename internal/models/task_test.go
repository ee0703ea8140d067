package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Done(t *testing.T) {
	task := &Task{}
	completed := time.Now().UTC()

	task.Status = TaskStatusOpen
	task.CompletedAt = nil
	assert.False(t, task.Done())

	task.Status = TaskStatusWontFix
	assert.False(t, task.Done())

	task.Status = TaskStatusClosed
	assert.False(t, task.Done())

	task.Status = TaskStatusOpen
	task.CompletedAt = &completed
	assert.False(t, task.Done())

	task.Status = TaskStatusWontFix
	assert.True(t, task.Done())
}

func TestTask_DoneMatchesResolvedAndCompleted(t *testing.T) {
	completed := time.Now().UTC()
	for _, status := range TaskStatuses() {
		for _, at := range []*time.Time{nil, &completed} {
			task := &Task{Status: status, CompletedAt: at}
			assert.Equal(t, task.Resolved() && at != nil, task.Done(), "status %s", status)
		}
	}
}

func TestTask_Overdue(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{}

	assert.False(t, task.Overdue(now))

	future := now.Add(24 * time.Hour)
	task.DueAt = &future
	assert.False(t, task.Overdue(now))

	past := now.Add(-24 * time.Hour)
	task.DueAt = &past
	assert.True(t, task.Overdue(now))
}

func TestTask_StatusPredicates(t *testing.T) {
	cases := []struct {
		status     TaskStatus
		statusType string
		resolved   bool
		predicate  func(*Task) bool
	}{
		{TaskStatusOpen, "Open", false, (*Task).IsOpen},
		{TaskStatusClosed, "Closed", true, (*Task).IsClosed},
		{TaskStatusWontFix, "Won't fix", true, (*Task).IsWontFix},
		{TaskStatusInvalid, "Invalid", true, (*Task).IsInvalid},
		{TaskStatusDuplicate, "Duplicate", true, (*Task).IsDuplicate},
	}

	for _, tc := range cases {
		t.Run(tc.statusType, func(t *testing.T) {
			task := &Task{Status: tc.status}
			assert.Equal(t, tc.statusType, task.StatusType())
			assert.Equal(t, tc.resolved, task.Resolved())
			assert.True(t, tc.predicate(task))
		})
	}
}

func TestTask_IssueNum(t *testing.T) {
	task := &Task{TaskNum: 1}
	assert.Equal(t, "#1", task.IssueNum())

	task.Status = TaskStatusWontFix
	assert.Equal(t, "<strike>#1</strike>", task.IssueNum())
	assert.Contains(t, task.StatusName(), "<strike>#1</strike>")
	assert.Equal(t, "<strike>#1</strike> Won't fix", task.StatusName())
}

func TestTask_Hidden(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{}
	assert.False(t, task.Hidden(now))

	later := now.Add(time.Hour)
	task.HideUntil = &later
	assert.True(t, task.Hidden(now))

	task.HideUntil = &now
	assert.False(t, task.Hidden(now))
}

func TestParseTaskStatus(t *testing.T) {
	for _, input := range []string{"Won't fix", "wont_fix", "WONT FIX"} {
		s, err := ParseTaskStatus(input)
		require.NoError(t, err, input)
		assert.Equal(t, TaskStatusWontFix, s)
	}

	s, err := ParseTaskStatus("closed")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusClosed, s)

	_, err = ParseTaskStatus("archived")
	assert.Error(t, err)
}

func TestTaskStatus_String(t *testing.T) {
	assert.Equal(t, "Duplicate", TaskStatusDuplicate.String())
	assert.Equal(t, "TaskStatus(9)", TaskStatus(9).String())
	assert.False(t, TaskStatus(-1).Valid())
}

func TestTask_BeforeSaveStoresUTC(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	hide := time.Date(2024, 3, 1, 20, 0, 0, 0, jst)
	task := &Task{HideUntil: &hide, DueAt: &hide}

	assert.NoError(t, task.BeforeSave(nil))

	assert.Equal(t, time.UTC, task.HideUntil.Location())
	assert.Equal(t, time.UTC, task.DueAt.Location())
	assert.True(t, hide.Equal(*task.HideUntil))
	assert.Nil(t, task.CompletedAt)
}
