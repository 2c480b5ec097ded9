package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.PageSize)
	}
}

// ActiveOnly hides soft-deleted rows.
func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// BoardOrder sorts by due date, most recently modified first, then id.
func BoardOrder(db *gorm.DB) *gorm.DB {
	return db.Order("due_date ASC").Order("last_modified DESC").Order("id ASC")
}
