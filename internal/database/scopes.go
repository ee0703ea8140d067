package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Tasks restricts a query to regular tasks, leaving templates out.
func Tasks(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.type = ?", models.TaskKindTask)
}
