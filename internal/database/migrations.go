package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by the task listing and the
// hide-until sweep that the struct tags do not declare.
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"tasks", "tasks_project_completed_index", "project_id, completed_at"},
		{"tasks", "tasks_project_milestone_index", "project_id, milestone_id"},
		{"task_users", "task_users_user_unread_index", "user_id, unread"},
		{"work_logs", "work_logs_task_user_index", "task_id, user_id"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
