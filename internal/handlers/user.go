package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board/internal/dto"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/services"
)

type UserHandler struct {
	workflow *services.Workflow
}

func NewUserHandler(workflow *services.Workflow) *UserHandler {
	return &UserHandler{workflow: workflow}
}

// ListUsers returns accounts ordered by id. ?q= searches by name instead.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var result services.Result[[]models.User]
	if term := c.Query("q"); term != "" {
		result = h.workflow.SearchUsers(c.Request.Context(), term)
	} else {
		result = h.workflow.ListUsers(c.Request.Context(), c.Query("active_only") == "true")
	}
	if !respondResult(c, result) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserDTOs(result.Data)})
}

// SetActivation activates or deactivates an account. Admin only.
func (h *UserHandler) SetActivation(c *gin.Context) {
	phone, err := strconv.ParseInt(c.Param("phone"), 10, 64)
	if err != nil || phone <= 0 {
		apierrors.BadRequest(c, "Invalid phone number")
		return
	}

	type ActivationRequest struct {
		Active *bool `json:"active" binding:"required"`
	}

	var req ActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result := h.workflow.SetUserActive(c.Request.Context(), phone, *req.Active)
	if !respondResult(c, result) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"phone_number": phone,
		"is_active":    *req.Active,
	})
}
