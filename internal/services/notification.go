package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/models"
	"go.uber.org/zap"
)

// DefaultDaysAhead is the notification window used when none is configured.
const DefaultDaysAhead = 14

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists buckets from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Notification describes one task that is coming due.
type Notification struct {
	TaskID        uint64            `json:"task_id"`
	Title         string            `json:"title"`
	Status        models.TaskStatus `json:"status"`
	DueDate       string            `json:"due_date"`
	DaysUntilDue  int               `json:"days_until_due"`
	Assignee      string            `json:"assignee"`
	Priority      Priority          `json:"priority"`
	TimeRemaining string            `json:"time_remaining"`
}

// NotificationEngine selects upcoming tasks and ranks them by urgency.
type NotificationEngine struct {
	tasks       *TaskStore
	users       *UserStore
	defaultDays int
	now         func() time.Time
}

// NewNotificationEngine creates a NotificationEngine
func NewNotificationEngine(tasks *TaskStore, users *UserStore, defaultDays int) *NotificationEngine {
	if defaultDays <= 0 {
		defaultDays = DefaultDaysAhead
	}
	return &NotificationEngine{
		tasks:       tasks,
		users:       users,
		defaultDays: defaultDays,
		now:         time.Now,
	}
}

// WithClock replaces the time source, mainly for tests.
func (e *NotificationEngine) WithClock(now func() time.Time) *NotificationEngine {
	e.now = now
	return e
}

// Upcoming returns open tasks due within [today, today+daysAhead], soonest first.
func (e *NotificationEngine) Upcoming(ctx context.Context, daysAhead int) ([]Notification, error) {
	if daysAhead <= 0 {
		daysAhead = e.defaultDays
	}

	tasks, err := e.tasks.GetOpen(ctx)
	if err != nil {
		return nil, err
	}

	today := e.now()
	type dueTask struct {
		task models.Task
		days int
	}
	due := make([]dueTask, 0, len(tasks))
	phones := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		dueDate, ok := models.ParseDueDate(task.DueDate)
		if !ok {
			logger.Warn("Skipping task with unparsable due date",
				zap.Uint64("task_id", task.ID),
				zap.String("due_date", task.DueDate))
			continue
		}
		days := DaysUntilDue(today, dueDate)
		if days < 0 || days > daysAhead {
			continue
		}
		due = append(due, dueTask{task: task, days: days})
		phones = append(phones, task.PersonInCharge)
	}

	names := e.users.DisplayNames(ctx, phones)
	notifications := make([]Notification, 0, len(due))
	for _, d := range due {
		notifications = append(notifications, Notification{
			TaskID:        d.task.ID,
			Title:         d.task.Title,
			Status:        d.task.Status,
			DueDate:       d.task.DueDate,
			DaysUntilDue:  d.days,
			Assignee:      names[d.task.PersonInCharge],
			Priority:      PriorityFor(d.days),
			TimeRemaining: FormatTimeRemaining(d.days),
		})
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		if notifications[i].DaysUntilDue != notifications[j].DaysUntilDue {
			return notifications[i].DaysUntilDue < notifications[j].DaysUntilDue
		}
		return notifications[i].TaskID < notifications[j].TaskID
	})
	return notifications, nil
}

// DaysUntilDue counts calendar days from today to due, ignoring time of day.
func DaysUntilDue(today, due time.Time) int {
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func PriorityFor(days int) Priority {
	switch {
	case days <= 1:
		return PriorityHigh
	case days <= 3:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func FormatTimeRemaining(days int) string {
	switch {
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days < 7:
		return fmt.Sprintf("Due in %d days", days)
	case days < 30:
		return "Due in " + countOf(days/7, "week")
	default:
		return "Due in " + countOf(days/30, "month")
	}
}

func countOf(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// GroupByPriority buckets notifications, keeping their order within each bucket.
func GroupByPriority(notifications []Notification) map[Priority][]Notification {
	groups := make(map[Priority][]Notification, len(Priorities))
	for _, n := range notifications {
		groups[n.Priority] = append(groups[n.Priority], n)
	}
	return groups
}
