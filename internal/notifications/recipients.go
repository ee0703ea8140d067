// Package notifications decides who hears about changes to a task.
package notifications

import "github.com/yukikurage/jobsworth/internal/models"

// Recipients returns the deduplicated users behind a task's watcher and owner
// markers who want notifications and are still active. When excluding is set
// and does not want to hear about its own changes, it is dropped too.
// Markers must have User preloaded.
func Recipients(markers []models.TaskUser, excluding *models.User) []models.User {
	seen := make(map[uint64]struct{}, len(markers))
	users := make([]models.User, 0, len(markers))

	for _, marker := range markers {
		if marker.Role != models.TaskUserRoleWatcher && marker.Role != models.TaskUserRoleOwner {
			continue
		}
		user := marker.User
		if user.ID == 0 {
			continue
		}
		if _, dup := seen[user.ID]; dup {
			continue
		}
		seen[user.ID] = struct{}{}

		if !user.ReceiveNotifications || !user.Active {
			continue
		}
		if excluding != nil && excluding.ID == user.ID && !excluding.ReceiveOwnNotifications {
			continue
		}
		users = append(users, user)
	}

	return users
}

// UserIDs extracts the ids of users, preserving order.
func UserIDs(users []models.User) []uint64 {
	ids := make([]uint64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
