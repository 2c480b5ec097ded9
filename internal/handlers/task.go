package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board/internal/dto"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/middleware"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/services"
	"github.com/yukikurage/kanban-board/internal/utils"
)

type TaskHandler struct {
	workflow *services.Workflow
}

func NewTaskHandler(workflow *services.Workflow) *TaskHandler {
	return &TaskHandler{
		workflow: workflow,
	}
}

// ListTasks returns a page of tasks.
// ?status= and ?assignee= switch to an unpaginated filtered list.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	ctx := c.Request.Context()

	if status := c.Query("status"); status != "" {
		result := h.workflow.TasksByStatus(ctx, models.TaskStatus(status))
		if respondResult(c, result) {
			c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(result.Data)})
		}
		return
	}

	if assignee := c.Query("assignee"); assignee != "" {
		phone, err := strconv.ParseInt(assignee, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee")
			return
		}
		result := h.workflow.TasksByAssignee(ctx, phone)
		if respondResult(c, result) {
			c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(result.Data)})
		}
		return
	}

	params := utils.GetPaginationParams(c)
	includeInactive := c.Query("include_inactive") == "true"

	result := h.workflow.ListTasks(ctx, params, includeInactive)
	if !respondResult(c, result) {
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskListResponse(result.Data))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}
	h.respondTask(c, http.StatusOK, id)
}

// CreateTask creates a new task. The caller is the creator and, unless given, the person in charge.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	phone, exists := middleware.GetPhone(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title          string  `json:"title" binding:"required"`
		Status         string  `json:"status"`
		PersonInCharge *int64  `json:"person_in_charge"`
		DueDate        string  `json:"due_date" binding:"required"`
		AdditionalInfo *string `json:"additional_info"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.NewTask{
		Title:          req.Title,
		Status:         models.TaskStatusTodo,
		PersonInCharge: phone,
		DueDate:        req.DueDate,
		Creator:        phone,
	}
	if req.Status != "" {
		input.Status = models.TaskStatus(req.Status)
	}
	if req.PersonInCharge != nil {
		input.PersonInCharge = *req.PersonInCharge
	}
	if req.AdditionalInfo != nil {
		input.AdditionalInfo = *req.AdditionalInfo
	}

	result := h.workflow.AddTask(c.Request.Context(), input)
	if !respondResult(c, result) {
		return
	}
	h.respondTask(c, http.StatusCreated, result.Data)
}

// UpdateTask applies a partial update. "version" pins the version the client last read.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	phone, exists := middleware.GetPhone(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title          *string `json:"title"`
		Status         *string `json:"status"`
		PersonInCharge *int64  `json:"person_in_charge"`
		DueDate        *string `json:"due_date"`
		AdditionalInfo *string `json:"additional_info"`
		Version        *int64  `json:"version"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	patch := services.TaskPatch{
		Title:           req.Title,
		PersonInCharge:  req.PersonInCharge,
		DueDate:         req.DueDate,
		AdditionalInfo:  req.AdditionalInfo,
		ExpectedVersion: req.Version,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		patch.Status = &status
	}

	result := h.workflow.EditTask(c.Request.Context(), id, phone, patch)
	if !respondResult(c, result) {
		return
	}
	h.respondTask(c, http.StatusOK, id)
}

// MoveTask changes a task's status column.
func (h *TaskHandler) MoveTask(c *gin.Context) {
	phone, exists := middleware.GetPhone(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	type MoveTaskRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result := h.workflow.MoveTask(c.Request.Context(), id, phone, models.TaskStatus(req.Status))
	if !respondResult(c, result) {
		return
	}
	h.respondTask(c, http.StatusOK, id)
}

// DeleteTask soft-deletes a task, or removes it permanently with ?hard=true
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}
	hard := c.Query("hard") == "true"

	result := h.workflow.DeleteTask(c.Request.Context(), id, !hard)
	if !respondResult(c, result) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// RestoreTask brings a soft-deleted task back onto the board
func (h *TaskHandler) RestoreTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	result := h.workflow.RestoreTask(c.Request.Context(), id)
	if !respondResult(c, result) {
		return
	}
	h.respondTask(c, http.StatusOK, id)
}

// SearchTasks matches ?q= against ?fields= (comma separated, default title and additional_info)
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	var fields []string
	if raw := c.Query("fields"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			if field = strings.TrimSpace(field); field != "" {
				fields = append(fields, field)
			}
		}
	}

	result := h.workflow.Search(c.Request.Context(), c.Query("q"), fields)
	if !respondResult(c, result) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(result.Data)})
}

// OverdueTasks lists unfinished tasks past their due date
func (h *TaskHandler) OverdueTasks(c *gin.Context) {
	result := h.workflow.Overdue(c.Request.Context())
	if !respondResult(c, result) {
		return
	}

	tasks := dto.ToTaskDTOs(result.Data)
	for i := range tasks {
		tasks[i].Overdue = true
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) respondTask(c *gin.Context, status int, id uint64) {
	result := h.workflow.GetTask(c.Request.Context(), id)
	if !respondResult(c, result) {
		return
	}
	c.JSON(status, dto.ToTaskDTO(*result.Data))
}

func parseTaskID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid task ID")
		return 0, false
	}
	return id, true
}
