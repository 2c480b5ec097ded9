package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/services"
)

// CurrentUserResolver looks up the account behind a session.
type CurrentUserResolver interface {
	CurrentUser(ctx context.Context, phone int64) services.Result[*models.User]
}

// RequirePosition allows the request only for active users holding one of positions.
// Must run after RequireAuth.
func RequirePosition(resolver CurrentUserResolver, positions ...models.Position) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone, exists := GetPhone(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		result := resolver.CurrentUser(c.Request.Context(), phone)
		if !result.Success {
			if result.Kind == apierrors.KindNotFound {
				apierrors.Unauthorized(c, "Account no longer exists")
			} else {
				apierrors.RespondKind(c, result.Kind, result.Errors)
			}
			c.Abort()
			return
		}

		user := result.Data
		if !user.IsActive {
			apierrors.Forbidden(c, "Account is not active")
			c.Abort()
			return
		}
		for _, position := range positions {
			if user.Position == position {
				c.Next()
				return
			}
		}

		apierrors.Forbidden(c, "Insufficient privileges")
		c.Abort()
	}
}

// RequireAdmin is RequirePosition for Admin accounts.
func RequireAdmin(resolver CurrentUserResolver) gin.HandlerFunc {
	return RequirePosition(resolver, models.PositionAdmin)
}
