package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board/internal/constants"
	"github.com/yukikurage/kanban-board/internal/dto"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/middleware"
	"github.com/yukikurage/kanban-board/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	workflow *services.Workflow
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(workflow *services.Workflow) *AuthHandler {
	return &AuthHandler{
		workflow: workflow,
	}
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		PhoneNumber int64  `json:"phone_number" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Position    string `json:"position"`
		Password    string `json:"password" binding:"required"`
		AdminKey    string `json:"admin_key"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result := h.workflow.Register(c.Request.Context(), services.RegisterInput{
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
		Position:    req.Position,
		Password:    req.Password,
		AdminKey:    req.AdminKey,
	})
	if !respondResult(c, result) {
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*result.Data))
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		PhoneNumber int64  `json:"phone_number" binding:"required"`
		Password    string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result := h.workflow.Login(c.Request.Context(), req.PhoneNumber, req.Password)
	if !respondResult(c, result) {
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyPhone, result.Data.PhoneNumber)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*result.Data))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	phone, exists := middleware.GetPhone(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	result := h.workflow.CurrentUser(c.Request.Context(), phone)
	if !respondResult(c, result) {
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*result.Data))
}

// respondResult writes the error response for a failed result and reports whether it succeeded.
func respondResult[T any](c *gin.Context, result services.Result[T]) bool {
	if result.Success {
		return true
	}
	apierrors.RespondKind(c, result.Kind, result.Errors)
	return false
}
