package models

import (
	"regexp"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo          TaskStatus = "To-Do"
	TaskStatusInProgress    TaskStatus = "In Progress"
	TaskStatusWaitingReview TaskStatus = "Waiting Review"
	TaskStatusFinished      TaskStatus = "Finished"
)

// TaskStatuses lists every board column in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusWaitingReview,
	TaskStatusFinished,
}

// Valid reports whether s is one of the four board statuses.
func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// DateLayout is the only accepted due date format.
const DateLayout = "2006-01-02"

var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDueDate parses a strict YYYY-MM-DD calendar date.
func ParseDueDate(value string) (time.Time, bool) {
	if !dueDatePattern.MatchString(value) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type Task struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	Title          string     `gorm:"type:varchar(200);not null" json:"title"`
	Status         TaskStatus `gorm:"type:varchar(20);not null;default:'To-Do'" json:"status"`
	PersonInCharge int64      `gorm:"not null" json:"person_in_charge"`
	CreationDate   time.Time  `gorm:"not null" json:"creation_date"`
	DueDate        string     `gorm:"type:varchar(10);not null" json:"due_date"`
	Creator        int64      `gorm:"not null" json:"creator"`
	Editors        *int64     `json:"editors"`
	AdditionalInfo string     `gorm:"type:text" json:"additional_info"`
	LastModified   time.Time  `gorm:"not null" json:"last_modified"`
	Version        int64      `gorm:"not null;default:1" json:"version"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
}

// IsOverdue reports whether the task is past due on the given day and not finished.
func (t Task) IsOverdue(today time.Time) bool {
	if t.Status == TaskStatusFinished {
		return false
	}
	return t.DueDate < today.Format(DateLayout)
}
