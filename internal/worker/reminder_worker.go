package worker

import (
	"context"
	"time"

	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/services"
	"go.uber.org/zap"
)

// ReminderSource is the part of the workflow the worker reads from.
type ReminderSource interface {
	Upcoming(ctx context.Context, daysAhead int) services.Result[[]services.Notification]
	Overdue(ctx context.Context) services.Result[[]models.Task]
}

// Report summarizes one reminder pass.
type Report struct {
	Upcoming int
	High     int
	Overdue  int
}

// ReminderWorker periodically logs tasks that are coming due or already overdue.
type ReminderWorker struct {
	source    ReminderSource
	interval  time.Duration
	daysAhead int
}

func NewReminderWorker(source ReminderSource, interval time.Duration, daysAhead int) *ReminderWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReminderWorker{
		source:    source,
		interval:  interval,
		daysAhead: daysAhead,
	}
}

// Start blocks until ctx is cancelled, running one pass per interval.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Reminder worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Reminder worker stopping")
			return
		}
	}
}

func (w *ReminderWorker) Check(ctx context.Context) Report {
	start := time.Now()
	var report Report

	upcoming := w.source.Upcoming(ctx, w.daysAhead)
	if !upcoming.Success {
		logger.Warn("Reminder worker: failed to load upcoming tasks", zap.Strings("errors", upcoming.Errors))
	} else {
		report.Upcoming = len(upcoming.Data)
		for _, n := range upcoming.Data {
			if n.Priority != services.PriorityHigh {
				continue
			}
			report.High++
			logger.Info("Task due soon",
				zap.Uint64("task_id", n.TaskID),
				zap.String("title", n.Title),
				zap.String("assignee", n.Assignee),
				zap.String("time_remaining", n.TimeRemaining))
		}
	}

	overdue := w.source.Overdue(ctx)
	if !overdue.Success {
		logger.Warn("Reminder worker: failed to load overdue tasks", zap.Strings("errors", overdue.Errors))
	} else {
		report.Overdue = len(overdue.Data)
		for _, task := range overdue.Data {
			logger.Warn("Task overdue",
				zap.Uint64("task_id", task.ID),
				zap.String("title", task.Title),
				zap.String("due_date", task.DueDate),
				zap.Int64("person_in_charge", task.PersonInCharge))
		}
	}

	logger.Info("Reminder check finished",
		zap.Duration("duration", time.Since(start)),
		zap.Int("upcoming", report.Upcoming),
		zap.Int("high", report.High),
		zap.Int("overdue", report.Overdue))
	return report
}
