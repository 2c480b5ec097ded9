package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/kanban-board/internal/database"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/models"
	"gorm.io/gorm"
)

// Columns that may be searched with TaskFilter.SearchColumns
const (
	ColumnTitle          = "title"
	ColumnAdditionalInfo = "additional_info"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	guard *database.Guard
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB, timeout time.Duration) TaskRepository {
	return &GormTaskRepository{guard: database.NewGuard(db, timeout)}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.guard.Run(ctx, func(db *gorm.DB) error {
		return db.Create(task).Error
	})
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, includeInactive bool) (*models.Task, error) {
	var task models.Task
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		query := db
		if !includeInactive {
			query = query.Scopes(database.ActiveOnly)
		}
		return query.First(&task, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and optional pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		query := applyTaskFilter(db.Model(&models.Task{}), filter).Scopes(database.BoardOrder)
		if filter.Pagination != nil {
			query = query.Scopes(database.Paginate(*filter.Pagination))
		}
		return query.Find(&tasks).Error
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Count returns the number of tasks matching the filter, ignoring pagination
func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var total int64
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		return applyTaskFilter(db.Model(&models.Task{}), filter).Count(&total).Error
	})
	return total, err
}

// UpdateFields performs an optimistic-locked update and bumps the version
func (r *GormTaskRepository) UpdateFields(ctx context.Context, id uint64, version int64, fields map[string]interface{}) error {
	return r.guard.Run(ctx, func(db *gorm.DB) error {
		values := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			values[k] = v
		}
		values["version"] = gorm.Expr("version + 1")

		result := db.Model(&models.Task{}).
			Where("id = ? AND version = ?", id, version).
			Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apierrors.ErrConflict
		}
		return nil
	})
}

// Delete permanently removes a task row
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.guard.Run(ctx, func(db *gorm.DB) error {
		result := db.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountByStatus counts active tasks per status
func (r *GormTaskRepository) CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Task{}).
			Scopes(database.ActiveOnly).
			Select("status, COUNT(*) AS count").
			Group("status").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountByAssignee counts active tasks per person in charge
func (r *GormTaskRepository) CountByAssignee(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		PersonInCharge int64
		Count          int64
	}
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Task{}).
			Scopes(database.ActiveOnly).
			Select("person_in_charge, COUNT(*) AS count").
			Group("person_in_charge").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.PersonInCharge] = row.Count
	}
	return counts, nil
}

func applyTaskFilter(query *gorm.DB, filter TaskFilter) *gorm.DB {
	if !filter.IncludeInactive {
		query = query.Scopes(database.ActiveOnly)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ExcludeStatus != nil {
		query = query.Where("status <> ?", *filter.ExcludeStatus)
	}
	if filter.PersonInCharge != nil {
		query = query.Where("person_in_charge = ?", *filter.PersonInCharge)
	}
	if filter.DueFrom != "" {
		query = query.Where("due_date >= ?", filter.DueFrom)
	}
	if filter.DueTo != "" {
		query = query.Where("due_date <= ?", filter.DueTo)
	}
	if filter.DueBefore != "" {
		query = query.Where("due_date < ?", filter.DueBefore)
	}
	if filter.SearchTerm != "" && len(filter.SearchColumns) > 0 {
		pattern := "%" + escapeLike(strings.ToLower(filter.SearchTerm)) + "%"
		clauses := make([]string, 0, len(filter.SearchColumns))
		args := make([]interface{}, 0, len(filter.SearchColumns))
		for _, column := range filter.SearchColumns {
			clauses = append(clauses, "LOWER("+column+") LIKE ? ESCAPE '!'")
			args = append(args, pattern)
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return query
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(term)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
