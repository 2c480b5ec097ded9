package repository

import (
	"context"

	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a new task and fills in its generated ID
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID; soft-deleted rows only when includeInactive is set
	FindByID(ctx context.Context, id uint64, includeInactive bool) (*models.Task, error)

	// List retrieves tasks matching the filter in board order
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Count returns how many tasks match the filter
	Count(ctx context.Context, filter TaskFilter) (int64, error)

	// UpdateFields applies fields if the stored version still equals version
	UpdateFields(ctx context.Context, id uint64, version int64, fields map[string]interface{}) error

	// Delete permanently removes a task
	Delete(ctx context.Context, id uint64) error

	// CountByStatus counts active tasks per status
	CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error)

	// CountByAssignee counts active tasks per person in charge
	CountByAssignee(ctx context.Context) (map[int64]int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	IncludeInactive bool
	Status          *models.TaskStatus
	ExcludeStatus   *models.TaskStatus
	PersonInCharge  *int64
	DueFrom         string
	DueTo           string
	DueBefore       string
	SearchTerm      string
	SearchColumns   []string
	Pagination      *utils.PaginationParams
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a user, failing with ErrDuplicatePhone if the phone is taken
	Create(ctx context.Context, user *models.User) error

	// FindByPhone finds a user by phone number
	FindByPhone(ctx context.Context, phone int64) (*models.User, error)

	// FindByPhones loads every existing user among phones
	FindByPhones(ctx context.Context, phones []int64) ([]models.User, error)

	// SetActive changes the activation flag; false if the phone is unknown
	SetActive(ctx context.Context, phone int64, active bool) (bool, error)

	// List returns users ordered by ID
	List(ctx context.Context, activeOnly bool) ([]models.User, error)

	// Search matches the term against user names
	Search(ctx context.Context, term string) ([]models.User, error)
}
