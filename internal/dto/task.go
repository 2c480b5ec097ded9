package dto

import (
	"time"

	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	PhoneNumber int64           `json:"phone_number"`
	Name        string          `json:"name"`
	Position    models.Position `json:"position"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64            `json:"id"`
	Title          string            `json:"title"`
	Status         models.TaskStatus `json:"status"`
	PersonInCharge int64             `json:"person_in_charge"`
	DueDate        string            `json:"due_date"`
	Creator        int64             `json:"creator"`
	Editors        *int64            `json:"editors"`
	AdditionalInfo string            `json:"additional_info"`
	CreationDate   time.Time         `json:"creation_date"`
	LastModified   time.Time         `json:"last_modified"`
	Version        int64             `json:"version"`
	IsActive       bool              `json:"is_active"`
	Assignee       string            `json:"assignee,omitempty"`
	Overdue        bool              `json:"overdue"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// BoardColumnDTO is one status column of the board
type BoardColumnDTO struct {
	Status models.TaskStatus `json:"status"`
	Count  int               `json:"count"`
	Tasks  []TaskDTO         `json:"tasks"`
}

// NotificationGroupDTO holds the notifications of one priority bucket
type NotificationGroupDTO struct {
	Priority      services.Priority       `json:"priority"`
	Notifications []services.Notification `json:"notifications"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		PhoneNumber: user.PhoneNumber,
		Name:        user.Name,
		Position:    user.Position,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Status:         task.Status,
		PersonInCharge: task.PersonInCharge,
		DueDate:        task.DueDate,
		Creator:        task.Creator,
		Editors:        task.Editors,
		AdditionalInfo: task.AdditionalInfo,
		CreationDate:   task.CreationDate,
		LastModified:   task.LastModified,
		Version:        task.Version,
		IsActive:       task.IsActive,
	}
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(page services.TaskPage) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(page.Tasks),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}
}

// ToBoardDTO flattens the board into columns with display names attached
func ToBoardDTO(board services.Board) []BoardColumnDTO {
	columns := make([]BoardColumnDTO, len(board.Columns))
	for i, column := range board.Columns {
		tasks := make([]TaskDTO, len(column.Tasks))
		for j, boardTask := range column.Tasks {
			tasks[j] = ToTaskDTO(boardTask.Task)
			tasks[j].Assignee = boardTask.Assignee
			tasks[j].Overdue = boardTask.Overdue
		}
		columns[i] = BoardColumnDTO{Status: column.Status, Count: len(tasks), Tasks: tasks}
	}
	return columns
}

// ToNotificationGroups orders priority buckets from most to least urgent, skipping empty ones
func ToNotificationGroups(notifications []services.Notification) []NotificationGroupDTO {
	grouped := services.GroupByPriority(notifications)
	groups := make([]NotificationGroupDTO, 0, len(services.Priorities))
	for _, priority := range services.Priorities {
		if len(grouped[priority]) == 0 {
			continue
		}
		groups = append(groups, NotificationGroupDTO{Priority: priority, Notifications: grouped[priority]})
	}
	return groups
}
