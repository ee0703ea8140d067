package events

import "strconv"

const (
	SubjectHideUntilExpired = "jobsworth.tasks.hide_until_expired"

	StreamName   = "JOBSWORTH_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

func SubjectTaskUpdated(taskID uint64) string {
	return "jobsworth.task." + strconv.FormatUint(taskID, 10) + ".updated"
}

func SubjectTaskNotify(taskID uint64) string {
	return "jobsworth.task." + strconv.FormatUint(taskID, 10) + ".notify"
}

// StreamSubjects lists the subjects captured by the JetStream stream.
func StreamSubjects() []string {
	return []string{"jobsworth.task.>", "jobsworth.tasks.>"}
}
