package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/kanban-board/internal/constants"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/utils"
	"go.uber.org/zap"
)

// Result is what every Workflow operation hands to the presentation layer.
type Result[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Errors  []string       `json:"errors,omitempty"`
	Kind    apierrors.Kind `json:"kind,omitempty"`
}

func succeed[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](op string, err error) Result[T] {
	kind := apierrors.KindOf(err)
	if kind == apierrors.KindInternal || kind == apierrors.KindTimeout {
		logger.Error("Workflow operation failed", err, zap.String("operation", op))
	}
	return Result[T]{Errors: apierrors.Messages(err), Kind: kind}
}

func notFound[T any](format string, args ...interface{}) Result[T] {
	return Result[T]{Errors: []string{fmt.Sprintf(format, args...)}, Kind: apierrors.KindNotFound}
}

// BoardTask is a task with its assignee resolved for display.
type BoardTask struct {
	models.Task
	Assignee string `json:"assignee"`
	Overdue  bool   `json:"overdue"`
}

type BoardColumn struct {
	Status models.TaskStatus `json:"status"`
	Tasks  []BoardTask       `json:"tasks"`
}

// Board holds one column per status, in display order.
type Board struct {
	Columns []BoardColumn `json:"columns"`
}

type StatusWarning struct {
	Status models.TaskStatus `json:"status"`
	Count  int               `json:"count"`
}

type AssigneeLoad struct {
	Phone    int64  `json:"phone"`
	Assignee string `json:"assignee"`
	Count    int    `json:"count"`
}

// Advice is informational workload feedback for the board.
type Advice struct {
	CrowdedStatuses []StatusWarning `json:"crowded_statuses"`
	Overloaded      []AssigneeLoad  `json:"overloaded"`
	Underloaded     []AssigneeLoad  `json:"underloaded"`
	Messages        []string        `json:"messages"`
}

// Workflow is the single entry point used by the HTTP API and the CLI.
type Workflow struct {
	auth          *AuthService
	users         *UserStore
	tasks         *TaskStore
	notifications *NotificationEngine
	now           func() time.Time
}

// NewWorkflow creates a new Workflow
func NewWorkflow(auth *AuthService, users *UserStore, tasks *TaskStore, notifications *NotificationEngine) *Workflow {
	return &Workflow{
		auth:          auth,
		users:         users,
		tasks:         tasks,
		notifications: notifications,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for overdue flags.
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}

func (w *Workflow) AddTask(ctx context.Context, input NewTask) Result[uint64] {
	id, err := w.tasks.Add(ctx, input)
	if err != nil {
		return fail[uint64]("add_task", err)
	}
	return succeed(id)
}

func (w *Workflow) GetTask(ctx context.Context, id uint64) Result[*models.Task] {
	task, err := w.tasks.GetByID(ctx, id)
	if err != nil {
		return fail[*models.Task]("get_task", err)
	}
	if task == nil {
		return notFound[*models.Task]("task %d not found", id)
	}
	return succeed(task)
}

// MoveTask changes only the status of a task.
func (w *Workflow) MoveTask(ctx context.Context, id uint64, editor int64, status models.TaskStatus) Result[bool] {
	return w.EditTask(ctx, id, editor, TaskPatch{Status: &status})
}

func (w *Workflow) EditTask(ctx context.Context, id uint64, editor int64, patch TaskPatch) Result[bool] {
	updated, err := w.tasks.Update(ctx, id, editor, patch)
	if err != nil {
		return fail[bool]("edit_task", err)
	}
	if !updated {
		return notFound[bool]("task %d not found", id)
	}
	return succeed(true)
}

func (w *Workflow) DeleteTask(ctx context.Context, id uint64, soft bool) Result[bool] {
	deleted, err := w.tasks.Delete(ctx, id, soft)
	if err != nil {
		return fail[bool]("delete_task", err)
	}
	if !deleted {
		return notFound[bool]("task %d not found", id)
	}
	return succeed(true)
}

func (w *Workflow) RestoreTask(ctx context.Context, id uint64) Result[bool] {
	restored, err := w.tasks.Restore(ctx, id)
	if err != nil {
		return fail[bool]("restore_task", err)
	}
	if !restored {
		return notFound[bool]("task %d not found", id)
	}
	return succeed(true)
}

// ListBoard groups active tasks by status, each column sorted by due date.
func (w *Workflow) ListBoard(ctx context.Context) Result[Board] {
	tasks, err := w.tasks.GetAll(ctx, false)
	if err != nil {
		return fail[Board]("list_board", err)
	}

	phones := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		phones = append(phones, task.PersonInCharge)
	}
	names := w.users.DisplayNames(ctx, phones)

	today := w.now()
	byStatus := make(map[models.TaskStatus][]BoardTask, len(models.TaskStatuses))
	for _, task := range tasks {
		byStatus[task.Status] = append(byStatus[task.Status], BoardTask{
			Task:     task,
			Assignee: names[task.PersonInCharge],
			Overdue:  task.IsOverdue(today),
		})
	}

	board := Board{Columns: make([]BoardColumn, 0, len(models.TaskStatuses))}
	for _, status := range models.TaskStatuses {
		column := BoardColumn{Status: status, Tasks: byStatus[status]}
		if column.Tasks == nil {
			column.Tasks = []BoardTask{}
		}
		board.Columns = append(board.Columns, column)
	}
	return succeed(board)
}

// TaskPage is one page of the task listing.
type TaskPage struct {
	Tasks      []models.Task `json:"tasks"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int64         `json:"total_count"`
	TotalPages int           `json:"total_pages"`
}

func (w *Workflow) ListTasks(ctx context.Context, params utils.PaginationParams, includeInactive bool) Result[TaskPage] {
	tasks, total, err := w.tasks.Page(ctx, params, includeInactive)
	if err != nil {
		return fail[TaskPage]("list_tasks", err)
	}
	return succeed(TaskPage{
		Tasks:      tasks,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: params.TotalPages(total),
	})
}

func (w *Workflow) Overdue(ctx context.Context) Result[[]models.Task] {
	tasks, err := w.tasks.GetOverdue(ctx)
	if err != nil {
		return fail[[]models.Task]("overdue", err)
	}
	return succeed(tasks)
}

func (w *Workflow) TasksByStatus(ctx context.Context, status models.TaskStatus) Result[[]models.Task] {
	tasks, err := w.tasks.GetByStatus(ctx, status)
	if err != nil {
		return fail[[]models.Task]("tasks_by_status", err)
	}
	return succeed(tasks)
}

func (w *Workflow) TasksByAssignee(ctx context.Context, phone int64) Result[[]models.Task] {
	tasks, err := w.tasks.GetByAssignee(ctx, phone)
	if err != nil {
		return fail[[]models.Task]("tasks_by_assignee", err)
	}
	return succeed(tasks)
}

func (w *Workflow) Search(ctx context.Context, term string, fields []string) Result[[]models.Task] {
	tasks, err := w.tasks.Search(ctx, term, fields)
	if err != nil {
		return fail[[]models.Task]("search", err)
	}
	return succeed(tasks)
}

func (w *Workflow) Register(ctx context.Context, input RegisterInput) Result[*models.User] {
	user, err := w.auth.Register(ctx, input)
	if err != nil {
		return fail[*models.User]("register", err)
	}
	return succeed(user)
}

func (w *Workflow) Login(ctx context.Context, phone int64, password string) Result[*models.User] {
	user, err := w.auth.Login(ctx, phone, password)
	if err != nil {
		return fail[*models.User]("login", err)
	}
	return succeed(user)
}

func (w *Workflow) CurrentUser(ctx context.Context, phone int64) Result[*models.User] {
	user, err := w.auth.CurrentUser(ctx, phone)
	if err != nil {
		return fail[*models.User]("current_user", err)
	}
	return succeed(user)
}

func (w *Workflow) SetUserActive(ctx context.Context, phone int64, active bool) Result[bool] {
	found, err := w.users.SetActive(ctx, phone, active)
	if err != nil {
		return fail[bool]("set_user_active", err)
	}
	if !found {
		return notFound[bool]("user %d not found", phone)
	}
	return succeed(true)
}

func (w *Workflow) ListUsers(ctx context.Context, activeOnly bool) Result[[]models.User] {
	users, err := w.users.ListAll(ctx, activeOnly)
	if err != nil {
		return fail[[]models.User]("list_users", err)
	}
	return succeed(users)
}

func (w *Workflow) SearchUsers(ctx context.Context, term string) Result[[]models.User] {
	users, err := w.users.Search(ctx, term)
	if err != nil {
		return fail[[]models.User]("search_users", err)
	}
	return succeed(users)
}

// Upcoming uses the configured window when daysAhead <= 0.
func (w *Workflow) Upcoming(ctx context.Context, daysAhead int) Result[[]Notification] {
	notifications, err := w.notifications.Upcoming(ctx, daysAhead)
	if err != nil {
		return fail[[]Notification]("upcoming", err)
	}
	return succeed(notifications)
}

// Advice flags crowded status columns and unbalanced assignees. It never writes.
func (w *Workflow) Advice(ctx context.Context) Result[Advice] {
	byStatus, err := w.tasks.CountByStatus(ctx)
	if err != nil {
		return fail[Advice]("advice", err)
	}
	byAssignee, err := w.tasks.CountByAssignee(ctx)
	if err != nil {
		return fail[Advice]("advice", err)
	}

	advice := Advice{
		CrowdedStatuses: []StatusWarning{},
		Overloaded:      []AssigneeLoad{},
		Underloaded:     []AssigneeLoad{},
		Messages:        []string{},
	}
	for _, status := range models.TaskStatuses {
		count := byStatus[status]
		if count > constants.StatusOverflowThreshold {
			advice.CrowdedStatuses = append(advice.CrowdedStatuses, StatusWarning{Status: status, Count: count})
			advice.Messages = append(advice.Messages,
				fmt.Sprintf("Too many tasks in %q (%d). Consider moving some of them forward.", status, count))
		}
	}

	phones := make([]int64, 0, len(byAssignee))
	for phone := range byAssignee {
		phones = append(phones, phone)
	}
	sort.Slice(phones, func(i, j int) bool { return phones[i] < phones[j] })
	names := w.users.DisplayNames(ctx, phones)

	for _, phone := range phones {
		load := AssigneeLoad{Phone: phone, Assignee: names[phone], Count: byAssignee[phone]}
		switch {
		case load.Count > constants.AssigneeOverloadAbove:
			advice.Overloaded = append(advice.Overloaded, load)
			advice.Messages = append(advice.Messages,
				fmt.Sprintf("%s is overloaded with %d tasks.", load.Assignee, load.Count))
		case load.Count < constants.AssigneeUnderloadBelow:
			advice.Underloaded = append(advice.Underloaded, load)
			advice.Messages = append(advice.Messages,
				fmt.Sprintf("%s has only %d task(s) and can take on more.", load.Assignee, load.Count))
		}
	}
	return succeed(advice)
}
