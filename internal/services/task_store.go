package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/kanban-board/internal/constants"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/repository"
	"github.com/yukikurage/kanban-board/internal/utils"
	"go.uber.org/zap"
)

// Search fields accepted by TaskStore.Search
const (
	SearchFieldTitle          = "title"
	SearchFieldAdditionalInfo = "additional_info"
)

var searchColumns = map[string]string{
	SearchFieldTitle:          repository.ColumnTitle,
	SearchFieldAdditionalInfo: repository.ColumnAdditionalInfo,
}

// NewTask represents input for creating a task
type NewTask struct {
	Title          string
	Status         models.TaskStatus
	PersonInCharge int64
	DueDate        string
	Creator        int64
	AdditionalInfo string
}

// TaskPatch represents a partial update; nil fields are left unchanged.
// ExpectedVersion pins the version the caller read.
type TaskPatch struct {
	Title           *string
	Status          *models.TaskStatus
	PersonInCharge  *int64
	DueDate         *string
	AdditionalInfo  *string
	ExpectedVersion *int64
}

// TaskStore validates and persists tasks.
type TaskStore struct {
	repo  repository.TaskRepository
	users *UserStore
	now   func() time.Time
}

// NewTaskStore creates a new TaskStore
func NewTaskStore(repo repository.TaskRepository, users *UserStore) *TaskStore {
	return &TaskStore{
		repo:  repo,
		users: users,
		now:   time.Now,
	}
}

// WithClock replaces the time source, mainly for tests.
func (s *TaskStore) WithClock(now func() time.Time) *TaskStore {
	s.now = now
	return s
}

// Add validates every rule up front and returns the generated task ID.
func (s *TaskStore) Add(ctx context.Context, input NewTask) (uint64, error) {
	problems := validateTitle(input.Title)
	if !input.Status.Valid() {
		problems = append(problems, invalidStatusMessage(input.Status))
	}
	if _, ok := models.ParseDueDate(input.DueDate); !ok {
		problems = append(problems, "due date must be in YYYY-MM-DD format")
	}

	refProblems, err := s.checkActiveUser(ctx, "person in charge", input.PersonInCharge)
	if err != nil {
		return 0, err
	}
	problems = append(problems, refProblems...)

	refProblems, err = s.checkActiveUser(ctx, "creator", input.Creator)
	if err != nil {
		return 0, err
	}
	problems = append(problems, refProblems...)

	if err := apierrors.NewValidationError(problems); err != nil {
		return 0, err
	}

	now := s.now()
	task := &models.Task{
		Title:          strings.TrimSpace(input.Title),
		Status:         input.Status,
		PersonInCharge: input.PersonInCharge,
		CreationDate:   now,
		DueDate:        input.DueDate,
		Creator:        input.Creator,
		AdditionalInfo: input.AdditionalInfo,
		LastModified:   now,
		Version:        1,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}

	logger.Info("Task created", zap.Uint64("task_id", task.ID), zap.String("title", task.Title))
	return task.ID, nil
}

// GetByID returns nil, nil for missing or soft-deleted tasks.
func (s *TaskStore) GetByID(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// GetAll lists tasks by due date, then most recently modified.
func (s *TaskStore) GetAll(ctx context.Context, includeInactive bool) ([]models.Task, error) {
	return s.list(ctx, repository.TaskFilter{IncludeInactive: includeInactive})
}

// Page lists one page of tasks together with the total count.
func (s *TaskStore) Page(ctx context.Context, params utils.PaginationParams, includeInactive bool) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{IncludeInactive: includeInactive}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	filter.Pagination = &params
	tasks, err := s.list(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update applies a partial update atomically. It returns false if the task does not exist.
func (s *TaskStore) Update(ctx context.Context, id uint64, editor int64, patch TaskPatch) (bool, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != task.Version {
		return false, apierrors.ErrConflict
	}

	var problems []string
	if !ValidPhoneNumber(editor) {
		problems = append(problems, "editor must be a valid phone number")
	}

	fields := map[string]interface{}{}
	if patch.Title != nil {
		problems = append(problems, validateTitle(*patch.Title)...)
		fields["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			problems = append(problems, invalidStatusMessage(*patch.Status))
		}
		fields["status"] = *patch.Status
	}
	if patch.DueDate != nil {
		if _, ok := models.ParseDueDate(*patch.DueDate); !ok {
			problems = append(problems, "due date must be in YYYY-MM-DD format")
		}
		fields["due_date"] = *patch.DueDate
	}
	if patch.PersonInCharge != nil {
		refProblems, err := s.checkActiveUser(ctx, "person in charge", *patch.PersonInCharge)
		if err != nil {
			return false, err
		}
		problems = append(problems, refProblems...)
		fields["person_in_charge"] = *patch.PersonInCharge
	}
	if patch.AdditionalInfo != nil {
		fields["additional_info"] = *patch.AdditionalInfo
	}

	if err := apierrors.NewValidationError(problems); err != nil {
		return false, err
	}

	fields["editors"] = editor
	fields["last_modified"] = s.now()

	if err := s.repo.UpdateFields(ctx, id, task.Version, fields); err != nil {
		return false, fmt.Errorf("failed to update task %d: %w", id, err)
	}

	logger.Info("Task updated", zap.Uint64("task_id", id), zap.Int64("editor", editor))
	return true, nil
}

// Delete soft-deletes by default; a hard delete also purges soft-deleted rows.
func (s *TaskStore) Delete(ctx context.Context, id uint64, soft bool) (bool, error) {
	task, err := s.repo.FindByID(ctx, id, !soft)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find task: %w", err)
	}

	if soft {
		err = s.repo.UpdateFields(ctx, id, task.Version, map[string]interface{}{
			"is_active":     false,
			"last_modified": s.now(),
		})
	} else {
		err = s.repo.Delete(ctx, id)
		if repository.IsNotFound(err) {
			return false, nil
		}
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	logger.Info("Task deleted", zap.Uint64("task_id", id), zap.Bool("soft", soft))
	return true, nil
}

// Restore reactivates a soft-deleted task.
func (s *TaskStore) Restore(ctx context.Context, id uint64) (bool, error) {
	task, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find task: %w", err)
	}
	if task.IsActive {
		return true, nil
	}

	err = s.repo.UpdateFields(ctx, id, task.Version, map[string]interface{}{
		"is_active":     true,
		"last_modified": s.now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to restore task %d: %w", id, err)
	}
	return true, nil
}

func (s *TaskStore) GetByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	if !status.Valid() {
		return nil, &apierrors.ValidationError{Problems: []string{invalidStatusMessage(status)}}
	}
	return s.list(ctx, repository.TaskFilter{Status: &status})
}

func (s *TaskStore) GetByAssignee(ctx context.Context, phone int64) ([]models.Task, error) {
	return s.list(ctx, repository.TaskFilter{PersonInCharge: &phone})
}

// GetOverdue lists unfinished tasks due before today.
func (s *TaskStore) GetOverdue(ctx context.Context) ([]models.Task, error) {
	finished := models.TaskStatusFinished
	return s.list(ctx, repository.TaskFilter{
		DueBefore:     s.now().Format(models.DateLayout),
		ExcludeStatus: &finished,
	})
}

// GetOpen lists active tasks that are not finished.
func (s *TaskStore) GetOpen(ctx context.Context) ([]models.Task, error) {
	finished := models.TaskStatusFinished
	return s.list(ctx, repository.TaskFilter{ExcludeStatus: &finished})
}

// CountByStatus always includes all four statuses.
func (s *TaskStore) CountByStatus(ctx context.Context) (map[models.TaskStatus]int, error) {
	raw, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	counts := make(map[models.TaskStatus]int, len(models.TaskStatuses))
	for _, status := range models.TaskStatuses {
		counts[status] = int(raw[status])
	}
	return counts, nil
}

func (s *TaskStore) CountByAssignee(ctx context.Context) (map[int64]int, error) {
	raw, err := s.repo.CountByAssignee(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by assignee: %w", err)
	}
	counts := make(map[int64]int, len(raw))
	for phone, count := range raw {
		counts[phone] = int(count)
	}
	return counts, nil
}

// Search matches term case-insensitively in any of fields (default: title and additional info).
func (s *TaskStore) Search(ctx context.Context, term string, fields []string) ([]models.Task, error) {
	if len(fields) == 0 {
		fields = []string{SearchFieldTitle, SearchFieldAdditionalInfo}
	}

	columns := make([]string, 0, len(fields))
	var problems []string
	for _, field := range fields {
		column, ok := searchColumns[field]
		if !ok {
			problems = append(problems, fmt.Sprintf("invalid search field %q", field))
			continue
		}
		columns = append(columns, column)
	}
	if err := apierrors.NewValidationError(problems); err != nil {
		return nil, err
	}

	return s.list(ctx, repository.TaskFilter{SearchTerm: term, SearchColumns: columns})
}

func (s *TaskStore) list(ctx context.Context, filter repository.TaskFilter) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) checkActiveUser(ctx context.Context, role string, phone int64) ([]string, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []string{fmt.Sprintf("%s %d does not exist", role, phone)}, nil
	}
	if !user.IsActive {
		return []string{fmt.Sprintf("%s %d is not active", role, phone)}, nil
	}
	return nil, nil
}

func validateTitle(title string) []string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return []string{"task title cannot be empty"}
	}
	if utf8.RuneCountInString(trimmed) > constants.MaxTitleLength {
		return []string{fmt.Sprintf("task title cannot exceed %d characters", constants.MaxTitleLength)}
	}
	return nil
}

func invalidStatusMessage(status models.TaskStatus) string {
	return fmt.Sprintf("invalid status %q, must be one of %v", status, models.TaskStatuses)
}
