package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board/internal/dto"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/services"
)

// BoardHandler serves the read-only board views.
type BoardHandler struct {
	workflow *services.Workflow
}

func NewBoardHandler(workflow *services.Workflow) *BoardHandler {
	return &BoardHandler{workflow: workflow}
}

// GetBoard returns every status column with its tasks
func (h *BoardHandler) GetBoard(c *gin.Context) {
	result := h.workflow.ListBoard(c.Request.Context())
	if !respondResult(c, result) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": dto.ToBoardDTO(result.Data)})
}

func (h *BoardHandler) GetAdvice(c *gin.Context) {
	result := h.workflow.Advice(c.Request.Context())
	if !respondResult(c, result) {
		return
	}
	c.JSON(http.StatusOK, result.Data)
}

// GetNotifications lists tasks due within ?days= (default from config), grouped by priority
func (h *BoardHandler) GetNotifications(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apierrors.BadRequest(c, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	result := h.workflow.Upcoming(c.Request.Context(), days)
	if !respondResult(c, result) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  len(result.Data),
		"groups": dto.ToNotificationGroups(result.Data),
	})
}
