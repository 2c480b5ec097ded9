package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board/internal/constants"
	"github.com/yukikurage/kanban-board/internal/middleware"
	"github.com/yukikurage/kanban-board/internal/services"
)

// NewRouter wires every API route onto a new gin engine.
func NewRouter(workflow *services.Workflow, store sessions.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	authHandler := NewAuthHandler(workflow)
	taskHandler := NewTaskHandler(workflow)
	boardHandler := NewBoardHandler(workflow)
	userHandler := NewUserHandler(workflow)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Kanban board API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/search", taskHandler.SearchTasks)
			tasks.GET("/overdue", taskHandler.OverdueTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/move", taskHandler.MoveTask)
			tasks.POST("/:id/restore", taskHandler.RestoreTask)
		}

		board := api.Group("")
		board.Use(middleware.RequireAuth())
		{
			board.GET("/board", boardHandler.GetBoard)
			board.GET("/advice", boardHandler.GetAdvice)
			board.GET("/notifications", boardHandler.GetNotifications)
		}

		users := api.Group("/users")
		users.Use(middleware.RequireAuth())
		{
			users.GET("", userHandler.ListUsers)
			users.POST("/:phone/activation", middleware.RequireAdmin(workflow), userHandler.SetActivation)
		}
	}

	return r
}
