package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/models"
	"github.com/mmlivehub/opsboard_backend/utils"
)

// SessionMiddleware resolves the opaque session token into the logged-in
// user and hydrates the request context with identity values the models
// read. Requests without a token pass through and fail later at the
// handler's identity check.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		user, err := models.GetUserByUsername(c.Request.Context(), username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyToken, token)
		ctx = context.WithValue(ctx, utils.ContextKeyUsername, username)
		ctx = context.WithValue(ctx, utils.ContextKeyUserId, user.ID)
		ctx = context.WithValue(ctx, utils.ContextKeyUserName, user.Name)
		ctx = context.WithValue(ctx, utils.ContextKeyRole, string(user.Role))

		// best effort: staff-facing queries filter by employee id when present
		if employee, err := models.GetEmployeeByUserId(ctx, user.ID); err == nil {
			ctx = context.WithValue(ctx, utils.ContextKeyEmployeeId, employee.ID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
