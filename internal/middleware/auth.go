package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board/internal/constants"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
)

// RequireAuth checks if the user is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		phone, ok := session.Get(constants.ContextKeyPhone).(int64)
		if !ok || phone <= 0 {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store phone number in context for easy access in handlers
		c.Set(constants.ContextKeyPhone, phone)
		c.Next()
	}
}

// GetPhone retrieves the current user's phone number from context
func GetPhone(c *gin.Context) (int64, bool) {
	value, exists := c.Get(constants.ContextKeyPhone)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case int64:
		return v, v > 0
	case int:
		return int64(v), v > 0
	default:
		return 0, false
	}
}
