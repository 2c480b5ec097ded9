package database

import (
	"fmt"

	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type taskIndex struct {
	name   string
	column string
}

var taskIndexes = []taskIndex{
	{"idx_tasks_status", "status"},
	{"idx_tasks_due_date", "due_date"},
	{"idx_tasks_person_in_charge", "person_in_charge"},
	{"idx_tasks_is_active", "is_active"},
}

// AddIndexes adds the board's lookup indexes, skipping any that already exist.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range taskIndexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, idx.column)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Info("Created index", zap.String("index", idx.name), zap.String("column", idx.column))
	}
	return nil
}
